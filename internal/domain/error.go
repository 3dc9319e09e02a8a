package domain

// APIResponse é o envelope padrão de toda resposta da API: um indicador
// booleano de sucesso mais os dados ou uma mensagem. Clientes devem
// ramificar pelo campo `state`, não apenas pelo status HTTP.
type APIResponse struct {
	State   bool        `json:"state"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ErrorResponse é a estrutura padronizada para respostas de erro na API.
// @Description Estrutura padronizada para respostas de erro na API.
type ErrorResponse struct {
	State    bool   `json:"state" example:"false"`
	Code     int    `json:"code" example:"400"`
	Category string `json:"category" example:"VALIDATION_ERROR"`
	Message  string `json:"message" example:"O campo features é obrigatório para eletrônicos."`
}
