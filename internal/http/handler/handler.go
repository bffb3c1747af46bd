package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"skinscan/internal/http/middleware"
	"skinscan/internal/model"
	"skinscan/internal/service"
)

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type signupResponse struct {
	Success bool          `json:"success"`
	User    model.Account `json:"user"`
}

type updateProfileRequest struct {
	Name *string `json:"name"`
}

type analyzeRequest struct {
	UserID   string `json:"userId"`
	ImageURL string `json:"imageUrl"`
}

type uploadResponse struct {
	ImageURL string `json:"imageUrl"`
}

type scansResponse struct {
	Scans []model.Scan `json:"scans"`
}

type deleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Health godoc
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} healthResponse
// @Router /health [get]
func Health() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(healthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		})
	}
}

// LivenessProbe answers 200 while the process is up.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// ReadinessProbe checks the persistence backend with a short timeout.
func ReadinessProbe(check func(context.Context) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if check != nil {
			if err := check(ctx); err != nil {
				return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
			}
		}
		return c.JSON(fiber.Map{"status": "ready"})
	}
}

// Signup godoc
// @Summary Register an account
// @Tags users
// @Accept json
// @Produce json
// @Param body body signupRequest true "account"
// @Success 200 {object} signupResponse
// @Failure 400 {object} errorPayload
// @Failure 409 {object} errorPayload
// @Failure 502 {object} errorPayload
// @Router /signup [post]
func Signup(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req signupRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "invalid JSON body")
		}
		acc, err := svc.Signup(c.UserContext(), service.SignupInput{
			Email:    req.Email,
			Password: req.Password,
			Name:     req.Name,
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(signupResponse{Success: true, User: acc})
	}
}

// GetProfile godoc
// @Summary Get own profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param userId path string true "user id"
// @Success 200 {object} model.Profile
// @Failure 401 {object} errorPayload
// @Failure 403 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /user/{userId} [get]
func GetProfile(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, ok := middleware.IdentityFrom(c)
		if !ok {
			return respondError(c, service.ErrUnauthenticated)
		}
		p, err := svc.GetProfile(c.UserContext(), caller.ID, c.Params("userId"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(p)
	}
}

// UpdateProfile godoc
// @Summary Update own profile name
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param userId path string true "user id"
// @Param body body updateProfileRequest true "fields"
// @Success 200 {object} model.Profile
// @Failure 400 {object} errorPayload
// @Failure 403 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /user/{userId} [put]
func UpdateProfile(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, ok := middleware.IdentityFrom(c)
		if !ok {
			return respondError(c, service.ErrUnauthenticated)
		}
		userID := c.Params("userId")
		// a stranger learns nothing about body validation
		if userID != caller.ID {
			return respondError(c, service.ErrForbidden)
		}
		var req updateProfileRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "invalid JSON body")
		}
		p, err := svc.UpdateProfile(c.UserContext(), caller.ID, userID, service.UpdateProfileInput{Name: req.Name})
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(p)
	}
}

// UploadImage godoc
// @Summary Upload a lesion image
// @Tags scans
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "image"
// @Param userId formData string true "owner id"
// @Success 200 {object} uploadResponse
// @Failure 400 {object} errorPayload
// @Failure 403 {object} errorPayload
// @Failure 413 {object} errorPayload
// @Failure 502 {object} errorPayload
// @Router /upload-image [post]
func UploadImage(svc service.ImageService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, ok := middleware.IdentityFrom(c)
		if !ok {
			return respondError(c, service.ErrUnauthenticated)
		}
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "file is required")
		}
		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		url, err := svc.Upload(c.UserContext(), caller.ID, service.UploadInput{
			UserID:      c.FormValue("userId"),
			Filename:    fh.Filename,
			ContentType: fh.Header.Get(fiber.HeaderContentType),
			Size:        fh.Size,
			Body:        f,
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(uploadResponse{ImageURL: url})
	}
}

// Analyze godoc
// @Summary Analyze an uploaded image
// @Tags scans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body analyzeRequest true "image reference"
// @Success 200 {object} model.Scan
// @Failure 400 {object} errorPayload
// @Failure 403 {object} errorPayload
// @Failure 502 {object} errorPayload
// @Failure 503 {object} errorPayload
// @Router /analyze [post]
func Analyze(svc service.AnalysisService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, ok := middleware.IdentityFrom(c)
		if !ok {
			return respondError(c, service.ErrUnauthenticated)
		}
		var req analyzeRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "invalid JSON body")
		}
		scan, err := svc.Analyze(c.UserContext(), caller.ID, service.AnalyzeInput{
			UserID:   req.UserID,
			ImageURL: req.ImageURL,
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(scan)
	}
}

// ListScans godoc
// @Summary List own scans, newest first
// @Tags scans
// @Produce json
// @Security BearerAuth
// @Param userId path string true "owner id"
// @Param q query string false "disease name substring"
// @Param severity query string false "Low, Moderate (or medium), High, Unknown"
// @Success 200 {object} scansResponse
// @Failure 400 {object} errorPayload
// @Failure 403 {object} errorPayload
// @Router /scans/{userId} [get]
func ListScans(svc service.ScanService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, ok := middleware.IdentityFrom(c)
		if !ok {
			return respondError(c, service.ErrUnauthenticated)
		}
		scans, err := svc.List(c.UserContext(), caller.ID, c.Params("userId"), service.ListScansInput{
			Query:    c.Query("q"),
			Severity: c.Query("severity"),
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(scansResponse{Scans: scans})
	}
}

// DeleteScan godoc
// @Summary Delete an own scan
// @Tags scans
// @Produce json
// @Security BearerAuth
// @Param scanId path string true "scan id"
// @Success 200 {object} deleteResponse
// @Failure 403 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /scans/{scanId} [delete]
func DeleteScan(svc service.ScanService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, ok := middleware.IdentityFrom(c)
		if !ok {
			return respondError(c, service.ErrUnauthenticated)
		}
		if err := svc.Delete(c.UserContext(), caller.ID, c.Params("scanId")); err != nil {
			return respondError(c, err)
		}
		return c.JSON(deleteResponse{Success: true, Message: "Scan deleted successfully"})
	}
}
