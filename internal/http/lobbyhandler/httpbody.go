package lobbyhandler

type CreateLobbyBody struct {
	Name      string `json:"name"      binding:"required"           example:"Calc Study"`
	ClassName string `json:"className" binding:"required"           example:"MAT101"`
	School    string `json:"school"    binding:"required"           example:"State U"`
	MaxUsers  int    `json:"maxUsers"  binding:"required,gte=2,lte=4" example:"4"`
} // @name CreateLobbyRequest

type ListLobbiesQuery struct {
	ClassName string `form:"className" binding:"required"`
	School    string `form:"school"    binding:"required"`
} // @name ListLobbiesQuery

type ErrorResponse struct {
	Error string `json:"error"`
} // @name ErrorResponse
