package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/theater-seat-booking/internal/importer"
)

// maxUploadFiles bounds one import request.
const maxUploadFiles = 32

// ImportHandler accepts booking and section files as a multipart upload
// and runs them through the importers.  Files are staged in a temporary
// directory under UploadDir that is removed when the request ends.
type ImportHandler struct {
	Bookings  *importer.Reconciler
	Sections  *importer.SectionImporter
	UploadDir string
	Log       logrus.FieldLogger
}

func NewImportHandler(bookings *importer.Reconciler, sections *importer.SectionImporter, uploadDir string, log logrus.FieldLogger) *ImportHandler {
	if bookings == nil || sections == nil {
		panic("nil importer passed to NewImportHandler")
	}
	return &ImportHandler{Bookings: bookings, Sections: sections, UploadDir: uploadDir, Log: log}
}

// ImportBookings handles POST .../imports/bookings with one or more
// "files" parts (.csv, .json or .txt).
func (h *ImportHandler) ImportBookings(c echo.Context) error {
	tid, err := theaterID(c)
	if err != nil {
		return err
	}
	dir, paths, err := h.stage(c)
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	res, err := h.Bookings.ImportFiles(c.Request().Context(), tid, paths)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// ImportSections handles POST .../imports/sections.
func (h *ImportHandler) ImportSections(c echo.Context) error {
	tid, err := theaterID(c)
	if err != nil {
		return err
	}
	dir, paths, err := h.stage(c)
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	res, err := h.Sections.ImportFiles(c.Request().Context(), tid, paths)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// stage copies the uploaded files to a fresh temporary directory.  The
// original base name is kept because its extension selects the parser.
func (h *ImportHandler) stage(c echo.Context) (string, []string, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return "", nil, echo.NewHTTPError(http.StatusBadRequest, "expected multipart form with files")
	}
	files := form.File["files"]
	if len(files) == 0 {
		return "", nil, echo.NewHTTPError(http.StatusBadRequest, "no files uploaded")
	}
	if len(files) > maxUploadFiles {
		return "", nil, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("at most %d files per import", maxUploadFiles))
	}
	for _, fh := range files {
		if _, err := importer.FormatOf(fh.Filename); err != nil {
			return "", nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}

	dir, err := os.MkdirTemp(h.UploadDir, "import-*")
	if err != nil {
		return "", nil, fmt.Errorf("create upload dir: %w", err)
	}
	paths := make([]string, 0, len(files))
	for i, fh := range files {
		// prefix with the index so two parts with the same name do not collide
		dst := filepath.Join(dir, fmt.Sprintf("%02d-%s", i, filepath.Base(fh.Filename)))
		if err := saveUpload(fh, dst); err != nil {
			os.RemoveAll(dir)
			return "", nil, fmt.Errorf("save upload %s: %w", fh.Filename, err)
		}
		paths = append(paths, dst)
	}
	h.Log.WithFields(logrus.Fields{"files": len(paths), "dir": dir}).Debug("staged import upload")
	return dir, paths, nil
}

func saveUpload(fh *multipart.FileHeader, dst string) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
