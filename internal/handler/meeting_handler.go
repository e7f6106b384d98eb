package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"grab-a-time/internal/api"
	"grab-a-time/internal/booking"
	"grab-a-time/internal/middleware"
	"grab-a-time/internal/model"
)

func (h *Handler) bookMeeting(c *gin.Context) {
	var in model.MeetingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}
	m, err := h.meetings.Book(c.Request.Context(), c.Param("ownerID"), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, api.Success(m.Info()))
}

func (h *Handler) getMeeting(c *gin.Context) {
	m, err := h.meetings.Get(c.Request.Context(), c.Param("handle"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.Success(m.Info()))
}

func (h *Handler) editMeeting(c *gin.Context) {
	var p booking.MeetingPatch
	if err := c.ShouldBindJSON(&p); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}
	m, err := h.meetings.Edit(c.Request.Context(), c.Param("handle"), p)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.Success(m.Info()))
}

func (h *Handler) cancelMeeting(c *gin.Context) {
	hd := c.Param("handle")
	if err := h.meetings.Cancel(c.Request.Context(), hd); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.Success(gin.H{"handle": hd, "status": model.StatusCancelled}))
}

// listMyMeetings returns the caller's booked meetings. Optional from and
// to query parameters bound the range.
func (h *Handler) listMyMeetings(c *gin.Context) {
	var from, to time.Time
	if s := c.Query("from"); s != "" {
		t, err := model.ParseTimestamp(s)
		if err != nil {
			h.fail(c, err)
			return
		}
		from = t
	}
	if s := c.Query("to"); s != "" {
		t, err := model.ParseTimestamp(s)
		if err != nil {
			h.fail(c, err)
			return
		}
		to = t
	}

	list, err := h.meetings.ListForOwner(c.Request.Context(), middleware.OwnerID(c), from, to)
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]model.MeetingInfo, 0, len(list))
	for i := range list {
		out = append(out, list[i].Info())
	}
	c.JSON(http.StatusOK, api.Success(out))
}

func (h *Handler) getMyMeeting(c *gin.Context) {
	m, err := h.meetings.GetForOwner(c.Request.Context(), middleware.OwnerID(c), c.Param("handle"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.Success(m.Info()))
}

func (h *Handler) cancelMyMeeting(c *gin.Context) {
	hd := c.Param("handle")
	if err := h.meetings.CancelForOwner(c.Request.Context(), middleware.OwnerID(c), hd); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.Success(gin.H{"handle": hd, "status": model.StatusCancelled}))
}
