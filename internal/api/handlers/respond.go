package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Cheertaboi/storefront-service/internal/api/middleware"
	"github.com/Cheertaboi/storefront-service/internal/apperr"
	"github.com/Cheertaboi/storefront-service/internal/auth"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

var statusByKind = map[apperr.Kind]int{
	apperr.KindValidation:   http.StatusBadRequest,
	apperr.KindNotFound:     http.StatusNotFound,
	apperr.KindState:        http.StatusConflict,
	apperr.KindConflict:     http.StatusConflict,
	apperr.KindAuthRequired: http.StatusUnauthorized,
	apperr.KindForbidden:    http.StatusForbidden,
	apperr.KindBackend:      http.StatusInternalServerError,
}

// writeError maps a service error to its HTTP status. Backend failures are
// logged with their cause and reported with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var e *apperr.Error
	if !errors.As(err, &e) {
		e = apperr.Backend("internal error", err)
	}
	status := statusByKind[e.Kind]
	if e.Kind == apperr.KindBackend {
		middleware.LogWithCorrelationID(r.Context()).Error("request failed",
			zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: e.Code, Message: e.Message})
}

// decode reads the JSON body into dst and runs its validate tags.
func decode(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Validation("invalid_body", "request body is not valid JSON")
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return apperr.Validation("invalid_"+fe.Field(), fmt.Sprintf("%s failed the %q rule", fe.Field(), fe.Tag()))
		}
		return apperr.Validation("invalid_body", err.Error())
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid_"+name, name+" must be a positive integer")
	}
	return id, nil
}

func queryInt(r *http.Request, name string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(name))
	return n
}

// caller returns the authenticated caller. Routes using it sit behind
// auth.RequireUser.
func caller(r *http.Request) *auth.Claims {
	if c := auth.FromContext(r.Context()); c != nil {
		return c
	}
	return &auth.Claims{}
}
