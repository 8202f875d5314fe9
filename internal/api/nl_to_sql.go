package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/askdb/askdb/internal/apperr"
	"github.com/askdb/askdb/internal/config"
	"github.com/askdb/askdb/internal/pipeline"
)

const maxRequestBodyBytes = 1 << 20

type nlToSQLRequest struct {
	Query   *string `json:"query"`
	MaxRows *int    `json:"max_rows"`
}

func handleNLToSQL(cfg config.Config, deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Asker == nil {
		writeDetail(w, http.StatusInternalServerError, "query pipeline is not configured")
		return
	}

	var request nlToSQLRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	if err := decoder.Decode(&request); err != nil {
		if errors.Is(err, io.EOF) {
			writeDetail(w, http.StatusBadRequest, "request body is required")
			return
		}
		writeDetail(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if request.Query == nil {
		writeDetail(w, http.StatusBadRequest, "query is required")
		return
	}

	response, err := deps.Asker.Run(r.Context(), pipeline.Request{
		Question: *request.Query,
		MaxRows:  request.MaxRows,
	})
	if err != nil {
		classified := apperr.From(err)
		writeDetail(w, apperr.HTTPStatus(classified), classified.Detail(cfg.Query.VerboseErrors))
		return
	}
	writeJSON(w, http.StatusOK, response)
}
