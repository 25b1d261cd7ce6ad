package models

import "time"

// Roles
const (
	RoleGestor  = "GESTOR"
	RoleTecnico = "TECNICO"
)

// User status constants
const (
	UserPending  = "PENDING"
	UserActive   = "ACTIVE"
	UserInactive = "INACTIVE"
)

// Sexo values as registered in CadÚnico
const (
	SexoMasculino = "MASCULINO"
	SexoFeminino  = "FEMININO"
	SexoOutro     = "OUTRO"
)

// Parentesco values for family composition
const (
	ParentescoResponsavel = "RESPONSAVEL"
	ParentescoConjuge     = "CONJUGE"
	ParentescoFilho       = "FILHO"
	ParentescoOutro       = "OUTRO"
)

// Demand types for atendimentos
const (
	DemandaBeneficioEventual      = "BENEFICIO_EVENTUAL"
	DemandaCadastroUnico          = "CADASTRO_UNICO"
	DemandaBPC                    = "BPC"
	DemandaBolsaFamilia           = "BOLSA_FAMILIA"
	DemandaOrientacaoSocial       = "ORIENTACAO_SOCIAL"
	DemandaEncaminhamentoSaude    = "ENCAMINHAMENTO_SAUDE"
	DemandaEncaminhamentoEducacao = "ENCAMINHAMENTO_EDUCACAO"
	DemandaViolacaoDireitos       = "VIOLACAO_DIREITOS"
	DemandaOutro                  = "OUTRO"
)

// DemandaLabels maps each demand type to its display label.
var DemandaLabels = map[string]string{
	DemandaBeneficioEventual:      "Benefício Eventual",
	DemandaCadastroUnico:          "Cadastro Único",
	DemandaBPC:                    "BPC",
	DemandaBolsaFamilia:           "Bolsa Família",
	DemandaOrientacaoSocial:       "Orientação Social",
	DemandaEncaminhamentoSaude:    "Encaminhamento Saúde",
	DemandaEncaminhamentoEducacao: "Encaminhamento Educação",
	DemandaViolacaoDireitos:       "Violação de Direitos",
	DemandaOutro:                  "Outro",
}

// Request types

type MagicLinkRequest struct {
	Email string `json:"email"`
}

type InviteUserRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// CitizenInput is shared by create and update. Family fields are only
// honoured on create.
type CitizenInput struct {
	NomeCompleto        string   `json:"nome_completo"`
	CPF                 string   `json:"cpf"`
	DataNascimento      string   `json:"data_nascimento"` // YYYY-MM-DD
	Sexo                string   `json:"sexo"`
	NomeMae             string   `json:"nome_mae,omitempty"`
	NIS                 string   `json:"nis,omitempty"`
	RG                  string   `json:"rg,omitempty"`
	TituloEleitor       string   `json:"titulo_eleitor,omitempty"`
	CarteiraTrabalho    string   `json:"carteira_trabalho,omitempty"`
	CreateAsResponsavel bool     `json:"create_as_responsavel,omitempty"`
	Endereco            string   `json:"endereco,omitempty"`
	RendaFamiliarTotal  *float64 `json:"renda_familiar_total,omitempty"`
}

type CreateAtendimentoRequest struct {
	TipoDemanda    string `json:"tipo_demanda"`
	Encaminhamento string `json:"encaminhamento"`
	ParecerSocial  string `json:"parecer_social"`
}

// Response types

type SessionResponse struct {
	User      User      `json:"user"`
	Tenant    Tenant    `json:"tenant"`
	ExpiresAt time.Time `json:"expires_at"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

type CitizenSearchResponse struct {
	Citizens   []CitizenSummary `json:"citizens"`
	Pagination Pagination       `json:"pagination"`
}

type AttachmentURLResponse struct {
	URL       string    `json:"url"`
	FileName  string    `json:"file_name"`
	MimeType  string    `json:"mime_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Domain types

type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type User struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

type VerificationToken struct {
	Identifier string
	TokenHash  string
	Expires    time.Time
}

type CitizenSummary struct {
	ID             string    `json:"id"`
	NomeCompleto   string    `json:"nome_completo"`
	CPF            string    `json:"cpf"`
	DataNascimento time.Time `json:"data_nascimento"`
	NIS            *string   `json:"nis,omitempty"`
}

type Citizen struct {
	ID               string    `json:"id"`
	TenantID         string    `json:"tenant_id"`
	NomeCompleto     string    `json:"nome_completo"`
	CPF              string    `json:"cpf"`
	DataNascimento   time.Time `json:"data_nascimento"`
	Sexo             string    `json:"sexo"`
	NomeMae          *string   `json:"nome_mae,omitempty"`
	NIS              *string   `json:"nis,omitempty"`
	RG               *string   `json:"rg,omitempty"`
	TituloEleitor    *string   `json:"titulo_eleitor,omitempty"`
	CarteiraTrabalho *string   `json:"carteira_trabalho,omitempty"`
	CreatedBy        *string   `json:"created_by,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type Family struct {
	ID                    string         `json:"id"`
	TenantID              string         `json:"tenant_id"`
	ResponsavelFamiliarID string         `json:"responsavel_familiar_id"`
	Endereco              string         `json:"endereco"`
	RendaFamiliarTotal    *float64       `json:"renda_familiar_total,omitempty"`
	CreatedBy             *string        `json:"created_by,omitempty"`
	CreatedAt             time.Time      `json:"created_at"`
	Members               []FamilyMember `json:"members"`
}

type FamilyMember struct {
	CitizenID    string `json:"individuo_id"`
	NomeCompleto string `json:"nome_completo"`
	Parentesco   string `json:"parentesco"`
}

type Atendimento struct {
	ID             string    `json:"id"`
	TenantID       string    `json:"tenant_id"`
	CitizenID      string    `json:"individuo_id"`
	UserID         string    `json:"user_id"`
	UserName       string    `json:"user_name,omitempty"`
	Data           time.Time `json:"data"`
	TipoDemanda    string    `json:"tipo_demanda"`
	Encaminhamento string    `json:"encaminhamento"`
	ParecerSocial  string    `json:"parecer_social"`
}

type Attachment struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenant_id"`
	StorageKey string    `json:"-"`
	FileName   string    `json:"file_name"`
	FileSize   int64     `json:"file_size"`
	MimeType   string    `json:"mime_type"`
	UploadedBy string    `json:"uploaded_by"`
	UploadedAt time.Time `json:"uploaded_at"`
	FamilyID   *string   `json:"familia_id,omitempty"`
	CitizenID  *string   `json:"individuo_id,omitempty"`
}

type CitizenProfile struct {
	Citizen      Citizen       `json:"citizen"`
	Family       *Family       `json:"family,omitempty"`
	Atendimentos []Atendimento `json:"atendimentos"`
	Attachments  []Attachment  `json:"attachments"`
}

// Reporting types

type MonthCount struct {
	Mes   string `json:"mes"` // YYYY-MM
	Count int    `json:"count"`
}

type DemandCount struct {
	TipoDemanda string `json:"tipo_demanda"`
	Count       int    `json:"count"`
}

type DayCount struct {
	Dia   int `json:"dia"`
	Count int `json:"count"`
}

type DashboardMetrics struct {
	TotalAtendimentos          int           `json:"total_atendimentos"`
	TotalFamilias              int           `json:"total_familias"`
	TotalIndividuos            int           `json:"total_individuos"`
	AtendimentosPorMes         []MonthCount  `json:"atendimentos_por_mes"`
	AtendimentosPorTipoDemanda []DemandCount `json:"atendimentos_por_tipo_demanda"`
	UltimaAtualizacao          time.Time     `json:"ultima_atualizacao"`
}

type RMAReport struct {
	Mes                        int           `json:"mes"`
	Ano                        int           `json:"ano"`
	TenantName                 string        `json:"tenant_name,omitempty"`
	TotalAtendimentos          int           `json:"total_atendimentos"`
	AtendimentosPorTipoDemanda []DemandCount `json:"atendimentos_por_tipo_demanda"`
	AtendimentosPorDia         []DayCount    `json:"atendimentos_por_dia"`
	TotalFamiliasAtendidas     int           `json:"total_familias_atendidas"`
	TotalIndividuosAtendidos   int           `json:"total_individuos_atendidos"`
}

// CSV import types

type ImportError struct {
	Line   int      `json:"line"`
	CPF    string   `json:"cpf,omitempty"`
	Errors []string `json:"errors"`
}

type ImportResult struct {
	Success  bool          `json:"success"`
	Imported int           `json:"imported"`
	Errors   []ImportError `json:"errors"`
	Message  string        `json:"message"`
}

// Error response

type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}
