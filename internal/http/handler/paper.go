package handler

import (
	"mime"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"paperapi/internal/http/middleware"
	"paperapi/internal/model"
	"paperapi/internal/query"
	"paperapi/internal/service"
	"paperapi/internal/storage"
)

func validID(c *fiber.Ctx) (string, bool) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

// ListPapers returns one filtered page of papers.
// Query: course, semester, academicYear, subject, page, limit.
//
// @Summary List question papers
// @Tags papers
// @Produce json
// @Param course query string false "Course, or all"
// @Param semester query string false "Semester, or all"
// @Param academicYear query string false "Academic year, or all"
// @Param subject query string false "Case-insensitive subject substring"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} service.PaperListResult
// @Failure 400 {object} errorPayload
// @Router /api/papers [get]
func ListPapers(svc service.PaperService, defaultLimit int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page, err := query.ParsePageRequest(c.Query("page"), c.Query("limit"), defaultLimit)
		if err != nil {
			return respondError(c, err)
		}
		params := query.Params{
			Course:       c.Query("course"),
			Semester:     c.Query("semester"),
			AcademicYear: c.Query("academicYear"),
			Subject:      c.Query("subject"),
		}

		res, err := svc.List(c.UserContext(), params, page)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(res)
	}
}

// GetPaper returns paper metadata by ID.
//
// @Summary Get a question paper
// @Tags papers
// @Produce json
// @Param id path string true "Paper ID"
// @Success 200 {object} model.Paper
// @Failure 400,404 {object} errorPayload
// @Router /api/papers/{id} [get]
func GetPaper(svc service.PaperService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := validID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		p, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(p)
	}
}

// DownloadPaper streams the PDF as an attachment named after the original upload.
//
// @Summary Download a question paper
// @Tags papers
// @Produce application/pdf
// @Param id path string true "Paper ID"
// @Success 200 {file} binary
// @Failure 400,404 {object} errorPayload
// @Router /api/papers/{id}/download [get]
func DownloadPaper(svc service.PaperService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := validID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		dl, err := svc.Download(c.UserContext(), id)
		if err != nil {
			return respondError(c, err)
		}

		name := dl.Paper.FileName
		if name == "" {
			name = dl.Paper.ID + ".pdf"
		}
		c.Set(fiber.HeaderContentType, storage.PDFContentType)
		c.Set(fiber.HeaderContentDisposition, mime.FormatMediaType("attachment", map[string]string{"filename": name}))
		// The response owns the body from here and closes it once written.
		return c.SendStream(dl.Body, int(dl.Size))
	}
}

// UploadPaper accepts a multipart upload with the PDF under "file".
//
// @Summary Upload a question paper
// @Tags admin
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "PDF, at most 10MB"
// @Param title formData string true "Title"
// @Param course formData string true "Course"
// @Param semester formData string true "Semester"
// @Param academicYear formData string true "Academic year"
// @Param subject formData string true "Subject"
// @Param subjectCode formData string false "Subject code"
// @Param department formData string true "Department"
// @Success 201 {object} model.Paper
// @Failure 400,401,403,413,415 {object} errorPayload
// @Router /api/admin/papers [post]
func UploadPaper(svc service.PaperService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get(fiber.HeaderContentType)
		if ct == "" {
			ct = fiber.MIMEOctetStream
		}

		req := service.UploadRequest{
			Input: model.PaperInput{
				Title:        c.FormValue("title"),
				Course:       c.FormValue("course"),
				Semester:     c.FormValue("semester"),
				AcademicYear: c.FormValue("academicYear"),
				Subject:      c.FormValue("subject"),
				SubjectCode:  c.FormValue("subjectCode"),
				Department:   c.FormValue("department"),
			},
			File:        f,
			FileName:    fh.Filename,
			ContentType: ct,
			Size:        fh.Size,
		}

		p, err := svc.Upload(c.UserContext(), middleware.ActorFromCtx(c), req)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(p)
	}
}

// DeletePaper removes a paper and its file.
//
// @Summary Delete a question paper
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Paper ID"
// @Success 200 {object} map[string]string
// @Failure 400,401,403,404 {object} errorPayload
// @Router /api/admin/papers/{id} [delete]
func DeletePaper(svc service.PaperService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := validID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Delete(c.UserContext(), middleware.ActorFromCtx(c), id); err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"message": "Paper deleted successfully"})
	}
}

// AdminStats returns catalog totals.
//
// @Summary Catalog statistics
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.Stats
// @Failure 401,403 {object} errorPayload
// @Router /api/admin/stats [get]
func AdminStats(svc service.PaperService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		st, err := svc.Stats(c.UserContext(), middleware.ActorFromCtx(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(st)
	}
}
