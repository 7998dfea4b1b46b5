package http

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"complaint-service/internal/model"
	"complaint-service/internal/service"
)

func (h *Handler) submitComplaint(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}

	image, err := h.readUpload(c, "image")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	complaint, err := h.complaintService.Submit(c.Request.Context(), service.SubmitInput{
		UserID:      principal.SubjectID,
		Title:       c.PostForm("title"),
		Category:    c.PostForm("category"),
		Description: c.PostForm("description"),
		City:        c.PostForm("city"),
		Location:    c.PostForm("location"),
		BeforeImage: image,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(complaint))
}

func (h *Handler) listMyComplaints(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}

	records, err := h.complaintService.ListByUser(c.Request.Context(), principal.SubjectID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"items": records}))
}

func (h *Handler) listComplaints(c *gin.Context) {
	opts, err := parseComplaintQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	records, err := h.complaintService.ListAll(c.Request.Context(), opts)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"items": records}))
}

func (h *Handler) getComplaint(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	record, err := h.complaintService.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if principal.IsCitizen() && record.Complaint.UserID != principal.SubjectID {
		h.handleError(c, service.ErrPermissionDenied)
		return
	}

	c.JSON(http.StatusOK, successResponse(record))
}

func (h *Handler) listComplaintWorkers(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	workers, err := h.complaintService.AssignedWorkers(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"items": workers}))
}

func (h *Handler) complaintHistory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	entries, err := h.complaintService.History(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"items": entries}))
}

func (h *Handler) assignComplaint(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		DepartmentID int64   `json:"department_id" binding:"required"`
		WorkerIDs    []int64 `json:"worker_ids"`
		TimelineDays *int    `json:"timeline_days"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	if _, err := h.complaintService.AssignWithTimeline(c.Request.Context(), id, req.DepartmentID, req.WorkerIDs, req.TimelineDays); err != nil {
		h.handleError(c, err)
		return
	}

	h.respondWithComplaint(c, id)
}

func (h *Handler) setComplaintDeadline(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		DeadlineDate string `json:"deadline_date"`
		TimelineDays *int   `json:"timeline_days"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	ctx := c.Request.Context()
	var err error
	switch {
	case strings.TrimSpace(req.DeadlineDate) != "":
		day, parseErr := time.Parse(time.DateOnly, strings.TrimSpace(req.DeadlineDate))
		if parseErr != nil {
			c.JSON(http.StatusBadRequest, errorResponse("deadline_date must be YYYY-MM-DD"))
			return
		}
		_, err = h.complaintService.SetDeadline(ctx, id, day)
	case req.TimelineDays != nil:
		_, err = h.complaintService.ScheduleDeadline(ctx, id, *req.TimelineDays)
	default:
		c.JSON(http.StatusBadRequest, errorResponse("deadline_date or timeline_days is required"))
		return
	}
	if err != nil {
		h.handleError(c, err)
		return
	}

	h.respondWithComplaint(c, id)
}

func (h *Handler) updateComplaintStatus(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Status  string `json:"status" binding:"required"`
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	ctx := c.Request.Context()
	if !principal.IsAdmin() {
		if err := h.ensureDepartmentOwnsComplaint(ctx, principal, id); err != nil {
			h.handleError(c, err)
			return
		}
	}

	if _, err := h.complaintService.UpdateStatus(ctx, id, req.Status, req.Message); err != nil {
		h.handleError(c, err)
		return
	}

	h.respondWithComplaint(c, id)
}

func (h *Handler) completeComplaint(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.ensureDepartmentOwnsComplaint(ctx, principal, id); err != nil {
		h.handleError(c, err)
		return
	}

	image, err := h.readUpload(c, "image")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	if _, err := h.complaintService.CompleteTask(ctx, id, image, c.PostForm("message"), c.PostForm("worker_ids")); err != nil {
		h.handleError(c, err)
		return
	}

	h.respondWithComplaint(c, id)
}

func (h *Handler) submitFeedback(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Rating   int    `json:"rating" binding:"required"`
		Feedback string `json:"feedback"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	ctx := c.Request.Context()
	record, err := h.complaintService.Get(ctx, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if record.Complaint.UserID != principal.SubjectID {
		h.handleError(c, service.ErrPermissionDenied)
		return
	}

	if err := h.complaintService.RecordFeedback(ctx, id, req.Rating, req.Feedback); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"status": "recorded"}))
}

// downloadFile serves local names and Cloudinary URLs alike, so the
// reference is a catch-all path.
func (h *Handler) downloadFile(c *gin.Context) {
	ref := strings.TrimPrefix(c.Param("ref"), "/")
	if ref == "" {
		c.JSON(http.StatusBadRequest, errorResponse("file reference is required"))
		return
	}
	rc, err := h.complaintService.OpenMedia(c.Request.Context(), ref)
	if err != nil {
		h.handleError(c, err)
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(filepath.Ext(ref))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, -1, contentType, rc, nil)
}

func (h *Handler) departmentCounts(c *gin.Context) {
	counts, err := h.reportService.DepartmentCounts(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"items": counts}))
}

// ensureDepartmentOwnsComplaint passes only when the principal is the
// department the complaint is currently assigned to.
func (h *Handler) ensureDepartmentOwnsComplaint(ctx context.Context, principal model.Principal, complaintID int64) error {
	record, err := h.complaintService.Get(ctx, complaintID)
	if err != nil {
		return err
	}
	deptID := record.Complaint.DepartmentID
	if deptID == nil || !principal.OwnsDepartment(*deptID) {
		return service.ErrPermissionDenied
	}
	return nil
}

func (h *Handler) respondWithComplaint(c *gin.Context, id int64) {
	record, err := h.complaintService.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(record))
}

func parseComplaintQuery(c *gin.Context) (service.ListComplaintsOptions, error) {
	var opts service.ListComplaintsOptions

	if statusParam := c.Query("status"); statusParam != "" {
		for _, val := range splitCSV(statusParam) {
			status, err := model.ParseComplaintStatus(val)
			if err != nil {
				return opts, err
			}
			opts.Statuses = append(opts.Statuses, status)
		}
	}
	if deptID := strings.TrimSpace(c.Query("department_id")); deptID != "" {
		id, err := strconv.ParseInt(deptID, 10, 64)
		if err != nil {
			return opts, errors.New("invalid department_id")
		}
		opts.DepartmentID = &id
	}
	if dateFrom := strings.TrimSpace(c.Query("date_from")); dateFrom != "" {
		ts, err := time.Parse(time.RFC3339, dateFrom)
		if err != nil {
			return opts, err
		}
		opts.DateFrom = &ts
	}
	if dateTo := strings.TrimSpace(c.Query("date_to")); dateTo != "" {
		ts, err := time.Parse(time.RFC3339, dateTo)
		if err != nil {
			return opts, err
		}
		opts.DateTo = &ts
	}
	if limit := strings.TrimSpace(c.Query("limit")); limit != "" {
		if v, err := strconv.Atoi(limit); err == nil {
			opts.Limit = v
		}
	}
	if offset := strings.TrimSpace(c.Query("offset")); offset != "" {
		if v, err := strconv.Atoi(offset); err == nil {
			opts.Offset = v
		}
	}

	opts.Category = strings.TrimSpace(c.Query("category"))
	opts.City = strings.TrimSpace(c.Query("city"))

	return opts, nil
}
