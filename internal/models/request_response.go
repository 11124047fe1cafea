package models

// Request models
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type PartyRequest struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
}

type CaseDetailsRequest struct {
	Forum               string   `json:"forum" binding:"required"`
	FiledDate           string   `json:"filedDate" binding:"required,datetime=2006-01-02"`
	CaseType            string   `json:"caseType"`
	CaseNumber          string   `json:"caseNo"`
	ConnectedCases      []string `json:"connectedCases"`
	IsAppeal            bool     `json:"isAppeal"`
	LowerCourt          string   `json:"lowerCourt"`
	LowerCourtCaseNo    string   `json:"lowerCourtCaseNo"`
	LowerCourtOrderDate string   `json:"lowerCourtOrderDate" binding:"omitempty,datetime=2006-01-02"`
	CounselName         string   `json:"counselName"`
	CounselContact      string   `json:"counselContact"`
	ASGEngaged          bool     `json:"asgEngaged"`
	BriefFacts          string   `json:"briefFacts"`
	AffidavitStatus     string   `json:"affidavitStatus"`
	FinalOrderDate      string   `json:"finalOrderDate" binding:"omitempty,datetime=2006-01-02"`
}

type CreateCaseRequest struct {
	CaseDetailsRequest
	Petitioners []PartyRequest `json:"petitioners" binding:"dive"`
	Respondents []PartyRequest `json:"respondents" binding:"dive"`
}

type TransitionRequest struct {
	Status string `json:"status" binding:"required"`
}

type AddPartyRequest struct {
	Role    string `json:"role" binding:"required,oneof=petitioner respondent"`
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
}

type AddHearingRequest struct {
	HearingDate string `json:"hearingDate" binding:"required,datetime=2006-01-02"`
	Note        string `json:"note"`
}

type CreateUserRequest struct {
	Username string `json:"username" binding:"required,max=50"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"fullName"`
	Email    string `json:"email" binding:"omitempty,email"`
	Role     string `json:"role" binding:"required,oneof=admin standard"`
}

type UpdateUserRequest struct {
	Active *bool   `json:"active"`
	Role   *string `json:"role" binding:"omitempty,oneof=admin standard"`
}

type ResetPasswordRequest struct {
	NewPassword string `json:"newPassword" binding:"required,min=6"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6"`
}

// Response models
type AuthResponse struct {
	Status    string `json:"status"`
	Username  string `json:"username,omitempty"`
	Role      Role   `json:"role,omitempty"`
	Token     string `json:"token,omitempty"`
	ExpiresIn int    `json:"expiresIn,omitempty"`
}

type CaseResponse struct {
	Status string `json:"status"`
	Case   *Case  `json:"case"`
}

type CaseViewResponse struct {
	Status string    `json:"status"`
	View   *CaseView `json:"view"`
}

type CaseListResponse struct {
	Status string `json:"status"`
	CaseList
}

type PartyResponse struct {
	Status string `json:"status"`
	Party  *Party `json:"party"`
	Label  string `json:"label"`
}

type PartiesResponse struct {
	Status      string  `json:"status"`
	Petitioners []Party `json:"petitioners"`
	Respondents []Party `json:"respondents"`
}

type HearingResponse struct {
	Status  string        `json:"status"`
	Hearing *HearingEvent `json:"hearing"`
}

type HearingsResponse struct {
	Status          string         `json:"status"`
	Hearings        []HearingEvent `json:"hearings"`
	LastHearingDate string         `json:"lastHearingDate,omitempty"`
	NextHearingDate string         `json:"nextHearingDate,omitempty"`
}

type DocumentResponse struct {
	Status   string    `json:"status"`
	Document *Document `json:"document"`
}

type DocumentsResponse struct {
	Status    string     `json:"status"`
	Documents []Document `json:"documents"`
}

type DashboardResponse struct {
	Status string `json:"status"`
	Dashboard
}

type UserResponse struct {
	Status string `json:"status"`
	User   *User  `json:"user"`
}

type UsersResponse struct {
	Status   string `json:"status"`
	Users    []User `json:"users"`
	MaxUsers int    `json:"maxUsers"`
}

type MessageResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Status          string `json:"status"`
	Code            string `json:"code"`
	Message         string `json:"message"`
	CurrentStatus   string `json:"currentStatus,omitempty"`
	RequestedStatus string `json:"requestedStatus,omitempty"`
}
