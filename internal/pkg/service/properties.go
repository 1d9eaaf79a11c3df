package service

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/medscribe/internal/pkg/properties"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type templateInput struct {
	Instructions string `json:"instructions"`
}

type templatesResult struct {
	Templates interface{} `json:"templates"`
}

type trainingInput struct {
	Transcript   string `json:"transcript"`
	OriginalNote string `json:"originalNote"`
	ImprovedNote string `json:"improvedNote"`
}

type trainingResult struct {
	Count    int                  `json:"count"`
	Examples []properties.Example `json:"examples,omitempty"`
}

func templates(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		res, err := data.Templates.All(c.Request().Context())
		if err != nil {
			return mapErr(err)
		}
		return c.JSON(http.StatusOK, templatesResult{Templates: res})
	}
}

func saveTemplate(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		var inp templateInput
		if err := c.Bind(&inp); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "can't decode input")
		}
		res, err := data.Templates.Save(c.Request().Context(), c.Param("name"), inp.Instructions)
		if err != nil {
			return mapErr(err)
		}
		return c.JSON(http.StatusOK, templatesResult{Templates: res})
	}
}

func deleteTemplate(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		res, err := data.Templates.Delete(c.Request().Context(), c.Param("name"))
		if err != nil {
			return mapErr(err)
		}
		return c.JSON(http.StatusOK, templatesResult{Templates: res})
	}
}

func training(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		res, err := data.Training.All(c.Request().Context())
		if err != nil {
			return mapErr(err)
		}
		return c.JSON(http.StatusOK, trainingResult{Count: len(res), Examples: res})
	}
}

func addTraining(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		var inp trainingInput
		if err := c.Bind(&inp); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "can't decode input")
		}
		res, err := data.Training.Add(c.Request().Context(), inp.Transcript, inp.OriginalNote, inp.ImprovedNote)
		if err != nil {
			return mapErr(err)
		}
		return c.JSON(http.StatusOK, trainingResult{Count: res})
	}
}

func exportTraining(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("export method")()
		var b bytes.Buffer
		n, err := data.Training.Export(c.Request().Context(), &b)
		if err != nil {
			return mapErr(err)
		}
		goapp.Log.Info().Int("count", n).Msg("exported")
		c.Response().Header().Set(echo.HeaderContentDisposition,
			fmt.Sprintf(`attachment; filename="%s"`, ExportFileName(time.Now())))
		return c.Blob(http.StatusOK, "application/jsonl", b.Bytes())
	}
}

// ExportFileName returns the training data file name for the day
func ExportFileName(t time.Time) string {
	return fmt.Sprintf("scribeai_training_data_%s.jsonl", t.Format("2006-01-02"))
}

func mapErr(err error) error {
	if errors.Is(err, properties.ErrValidation) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if errors.Is(err, properties.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	goapp.Log.Error().Err(err).Send()
	return echo.NewHTTPError(http.StatusInternalServerError, "Service error")
}
