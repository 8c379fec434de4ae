package response

import (
	"encoding/json"
	"net/http"

	"github.com/Toasterson/bastel-project-webhookinator/constants"
)

type ErrorResponse struct {
	Message string `json:"message"`
}

func setDefaultHeaders(w http.ResponseWriter) {
	for _, header := range constants.DefaultResponseHeaders {
		w.Header().Set(header.Name, header.Value)
	}
}

func JSON(w http.ResponseWriter, code int, data interface{}) {
	setDefaultHeaders(w)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	if data == nil {
		w.WriteHeader(code)
		return
	}

	bytes, err := json.Marshal(data)
	if err != nil {
		panic(err)
	}
	w.WriteHeader(code)
	_, _ = w.Write(bytes)
}

func Text(w http.ResponseWriter, code int, body string) {
	setDefaultHeaders(w)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(body))
}

// Empty writes code with no body.
func Empty(w http.ResponseWriter, code int) {
	setDefaultHeaders(w)
	w.Header().Set("Content-Length", "0")
	w.WriteHeader(code)
}
