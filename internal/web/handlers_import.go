package web

import (
	"errors"
	"net/http"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/JonMunkholm/merchdesk/internal/importer"
	"github.com/JonMunkholm/merchdesk/internal/sheet"
)

// importForm holds the non-file fields of an import upload.
type importForm struct {
	Kind   string `validate:"required,oneof=catalog sales venue-sales venue-totals metadata"`
	TourID string `validate:"omitempty,uuid"`
	ShowID string `validate:"omitempty,uuid"`
	Sheet  string `validate:"max=31"`
}

// ImportResponse is the JSON body of a finished import.
type ImportResponse struct {
	Kind    importer.Kind    `json:"kind"`
	File    string           `json:"file"`
	Report  importer.Report  `json:"report"`
	Counts  []importer.Count `json:"counts"`
	Details importer.Result  `json:"details"`
}

func (s *Server) handleListImports(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"kinds":   importer.Kinds,
		"limiter": s.runner.Limiter().Status(),
	})
}

// handleImport runs one importer over an uploaded report. Venue imports
// take tour_id and optional show_id form fields; sheet selects a
// worksheet of an XLSX upload.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, r, sheet.ErrTooLarge, nil)
			return
		}
		respondError(w, r, errNoFile, nil)
		return
	}

	form := importForm{
		Kind:   chi.URLParam(r, "kind"),
		TourID: strings.TrimSpace(r.FormValue("tour_id")),
		ShowID: strings.TrimSpace(r.FormValue("show_id")),
		Sheet:  r.FormValue("sheet"),
	}
	if fields := s.check(form); fields != nil {
		if _, ok := fields["Kind"]; ok {
			respondError(w, r, errUnknownImport, fields)
			return
		}
		respondError(w, r, errInvalidReq, fields)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, errNoFile, nil)
		return
	}
	defer file.Close()

	if !s.allowedExtension(header.Filename) {
		respondError(w, r, errExtension, nil)
		return
	}
	if header.Size == 0 {
		respondError(w, r, errEmptyUpload, nil)
		return
	}

	rows, err := sheet.Read(file, header.Filename, maxSize, sheet.Options{Sheet: form.Sheet})
	if err != nil {
		respondError(w, r, err, nil)
		return
	}

	req := importer.Request{
		Kind:   importer.Kind(form.Kind),
		Rows:   rows,
		TourID: parseOptionalUUID(form.TourID),
		ShowID: parseOptionalUUID(form.ShowID),
	}
	res, err := s.runner.Run(r.Context(), req)
	if err != nil {
		respondError(w, r, err, nil)
		return
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := importReport(req.Kind, res).Render(r.Context(), w); err != nil {
			respondError(w, r, err, nil)
		}
		return
	}
	writeJSON(w, http.StatusOK, ImportResponse{
		Kind:    req.Kind,
		File:    header.Filename,
		Report:  res.Summary(),
		Counts:  res.Counts(),
		Details: res,
	})
}

func (s *Server) allowedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return slices.ContainsFunc(s.cfg.Import.AllowedExtensions, func(allowed string) bool {
		return strings.EqualFold(allowed, ext)
	})
}

// check validates v and returns failing fields mapped to the failed rule,
// or nil when v is valid.
func (s *Server) check(v any) map[string]string {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": err.Error()}
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return fields
}

func parseOptionalUUID(s string) uuid.NullUUID {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: id, Valid: true}
}
