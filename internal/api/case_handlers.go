package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rongwang/litigation-tracker/internal/models"
)

// toDetails converts the request body into the service's details type.
// Enum values are checked by the service.
func toDetails(req models.CaseDetailsRequest) (models.CaseDetails, error) {
	filed, err := models.ParseDate(req.FiledDate)
	if err != nil {
		return models.CaseDetails{}, fmt.Errorf("invalid filedDate %q", req.FiledDate)
	}
	lowerCourtOrder, err := models.ParseOptionalDate(req.LowerCourtOrderDate)
	if err != nil {
		return models.CaseDetails{}, fmt.Errorf("invalid lowerCourtOrderDate %q", req.LowerCourtOrderDate)
	}
	finalOrder, err := models.ParseOptionalDate(req.FinalOrderDate)
	if err != nil {
		return models.CaseDetails{}, fmt.Errorf("invalid finalOrderDate %q", req.FinalOrderDate)
	}

	return models.CaseDetails{
		Forum:               models.Forum(req.Forum),
		FiledDate:           filed,
		CaseType:            req.CaseType,
		CaseNumber:          req.CaseNumber,
		ConnectedCases:      req.ConnectedCases,
		IsAppeal:            req.IsAppeal,
		LowerCourt:          req.LowerCourt,
		LowerCourtCaseNo:    req.LowerCourtCaseNo,
		LowerCourtOrderDate: lowerCourtOrder,
		CounselName:         req.CounselName,
		CounselContact:      req.CounselContact,
		ASGEngaged:          req.ASGEngaged,
		BriefFacts:          req.BriefFacts,
		AffidavitStatus:     models.AffidavitStatus(req.AffidavitStatus),
		FinalOrderDate:      finalOrder,
	}, nil
}

// caseFilter reads list filters from the query string.
func caseFilter(c *gin.Context) (models.CaseFilter, error) {
	f := models.CaseFilter{
		Status: models.CaseStatus(c.Query("status")),
		Forum:  models.Forum(c.Query("forum")),
		Search: c.Query("q"),
		Sort:   models.CaseSort(c.Query("sort")),
	}

	var err error
	if f.FiledFrom, err = models.ParseOptionalDate(c.Query("filedFrom")); err != nil {
		return f, fmt.Errorf("invalid filedFrom %q", c.Query("filedFrom"))
	}
	if f.FiledTo, err = models.ParseOptionalDate(c.Query("filedTo")); err != nil {
		return f, fmt.Errorf("invalid filedTo %q", c.Query("filedTo"))
	}
	for key, dst := range map[string]*int{"page": &f.Page, "perPage": &f.PerPage} {
		v := c.Query(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, fmt.Errorf("invalid %s %q", key, v)
		}
		*dst = n
	}
	return f, nil
}

func (h *Handler) Dashboard(c *gin.Context) {
	d, err := h.svc.Dashboard(c.Request.Context(), identityFrom(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.DashboardResponse{Status: "success", Dashboard: *d})
}

// Cases

func (h *Handler) ListCases(c *gin.Context) {
	filter, err := caseFilter(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	list, err := h.svc.ListCases(c.Request.Context(), identityFrom(c), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.CaseListResponse{Status: "success", CaseList: *list})
}

func (h *Handler) CreateCase(c *gin.Context) {
	var req models.CreateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	details, err := toDetails(req.CaseDetailsRequest)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	parties := make([]models.NewParty, 0, len(req.Petitioners)+len(req.Respondents))
	for _, p := range req.Petitioners {
		parties = append(parties, models.NewParty{Role: models.Petitioner, Name: p.Name, Address: p.Address})
	}
	for _, p := range req.Respondents {
		parties = append(parties, models.NewParty{Role: models.Respondent, Name: p.Name, Address: p.Address})
	}

	created, err := h.svc.CreateCase(c.Request.Context(), identityFrom(c), details, parties)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.CaseResponse{Status: "success", Case: created})
}

// GetCase returns the assembled view: record, parties, hearings and documents.
func (h *Handler) GetCase(c *gin.Context) {
	view, err := h.svc.AssembleCase(c.Request.Context(), identityFrom(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.CaseViewResponse{Status: "success", View: view})
}

func (h *Handler) UpdateCase(c *gin.Context) {
	var req models.CaseDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	details, err := toDetails(req)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	updated, err := h.svc.UpdateCaseDetails(c.Request.Context(), identityFrom(c), c.Param("id"), details)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.CaseResponse{Status: "success", Case: updated})
}

func (h *Handler) TransitionCase(c *gin.Context) {
	var req models.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	updated, err := h.svc.TransitionCase(c.Request.Context(), identityFrom(c), c.Param("id"), models.CaseStatus(req.Status))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.CaseResponse{Status: "success", Case: updated})
}

// Parties

func (h *Handler) ListParties(c *gin.Context) {
	petitioners, respondents, err := h.svc.ListParties(c.Request.Context(), identityFrom(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.PartiesResponse{
		Status:      "success",
		Petitioners: petitioners,
		Respondents: respondents,
	})
}

func (h *Handler) AddParty(c *gin.Context) {
	var req models.AddPartyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	party, err := h.svc.AddParty(c.Request.Context(), identityFrom(c), c.Param("id"), models.NewParty{
		Role:    models.PartyRole(req.Role),
		Name:    req.Name,
		Address: req.Address,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.PartyResponse{Status: "success", Party: party, Label: party.Label()})
}

// Hearings

func (h *Handler) ListHearings(c *gin.Context) {
	ledger, err := h.svc.ListHearings(c.Request.Context(), identityFrom(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := models.HearingsResponse{Status: "success", Hearings: ledger.Hearings}
	if ledger.LastHearingDate != nil {
		resp.LastHearingDate = ledger.LastHearingDate.Format(models.DateLayout)
	}
	if ledger.NextHearingDate != nil {
		resp.NextHearingDate = ledger.NextHearingDate.Format(models.DateLayout)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) AddHearing(c *gin.Context) {
	var req models.AddHearingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	date, err := models.ParseDate(req.HearingDate)
	if err != nil {
		badRequest(c, fmt.Sprintf("invalid hearingDate %q", req.HearingDate))
		return
	}

	event, err := h.svc.AppendHearing(c.Request.Context(), identityFrom(c), c.Param("id"), date, req.Note)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.HearingResponse{Status: "success", Hearing: event})
}
