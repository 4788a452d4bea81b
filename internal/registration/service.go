package registration

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/nerrad567/event-companion-core/internal/audit"
	"github.com/nerrad567/event-companion-core/internal/auth"
	"github.com/nerrad567/event-companion-core/internal/backend"
	"github.com/nerrad567/event-companion-core/internal/infrastructure/logging"
)

// User-facing messages.
const (
	MsgRegistered      = "Usuário cadastrado e vinculado com sucesso!"
	MsgInvalidCPF      = "CPF inválido"
	MsgMissingFields   = "Preencha todos os campos."
	MsgInvalidEmail    = "Email inválido."
	MsgCompanyNotFound = "ID da empresa não encontrado"
	MsgCreateFailed    = "Erro ao cadastrar usuário"
	MsgLinkFailed      = "Erro ao vincular usuário à empresa"
	MsgNotAllowed      = "Acesso não permitido."
	MsgFailed          = "Erro ao processar o cadastro"
)

// Validation errors. Message maps each to the text shown on the form.
var (
	ErrNotAllowed      = errors.New("only booth administrators can register staff")
	ErrMissingFields   = errors.New("name, cpf, phone and email are required")
	ErrInvalidCPF      = errors.New("invalid cpf")
	ErrInvalidEmail    = errors.New("invalid email")
	ErrCompanyNotFound = errors.New("administrator has no company")
)

// Backend is the subset of the REST client registration needs.
type Backend interface {
	CompanyForUser(ctx context.Context, token, userID string) (backend.ID, error)
	CreateUser(ctx context.Context, token string, u backend.NewUser) (backend.ID, error)
	LinkUserToCompany(ctx context.Context, token, userID, companyID string) error
}

// Auditor records registrations. *audit.Recorder implements it.
type Auditor interface {
	Record(ctx context.Context, e audit.Entry)
}

// Request is the staff registration form.
type Request struct {
	Name  string `json:"name"`
	CPF   string `json:"cpf"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// Result is what the form shows after a submission.
type Result struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
	UserID  string `json:"user_id,omitempty"`
}

// Service registers booth staff on behalf of a booth administrator.
type Service struct {
	backend Backend
	auditor Auditor
	logger  *logging.Logger
}

// NewService creates a registration Service. auditor may be nil.
func NewService(b Backend, auditor Auditor, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{backend: b, auditor: auditor, logger: logger.With("component", "registration")}
}

// Validate normalises req in place and checks it.
func (req *Request) Validate() error {
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Phone == "" || req.Email == "" || strings.TrimSpace(req.CPF) == "" {
		return ErrMissingFields
	}
	if !ValidCPF(req.CPF) {
		return ErrInvalidCPF
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return ErrInvalidEmail
	}
	return nil
}

// Register creates the staff account and links it to the administrator's
// company. The company is resolved before the account is created so a
// missing company never leaves an unlinked account behind.
func (s *Service) Register(ctx context.Context, admin *auth.Session, req Request) Result {
	if !admin.Complete() || admin.Role != auth.RoleEstandeAdmin {
		return Result{Message: Message(ErrNotAllowed)}
	}
	if err := req.Validate(); err != nil {
		return Result{Message: Message(err)}
	}

	companyID, err := s.backend.CompanyForUser(ctx, admin.Token, admin.UserID)
	if err != nil || companyID == "" {
		s.logger.Warn("company lookup failed", "user_id", admin.UserID, "error", err)
		return Result{Message: Message(ErrCompanyNotFound)}
	}

	userID, err := s.backend.CreateUser(ctx, admin.Token, backend.NewUser{
		Name:     req.Name,
		CPF:      DigitsOnly(req.CPF),
		Phone:    req.Phone,
		Email:    req.Email,
		Role:     string(auth.RoleEstande),
		Password: req.Email,
	})
	if err != nil {
		s.logger.Warn("user creation failed", "error", err)
		return Result{Message: serverMessage(err, MsgCreateFailed)}
	}

	if err := s.backend.LinkUserToCompany(ctx, admin.Token, userID.String(), companyID.String()); err != nil {
		s.logger.Warn("linking user failed", "user_id", userID, "company_id", companyID, "error", err)
		return Result{Message: serverMessage(err, MsgLinkFailed), UserID: userID.String()}
	}

	s.logger.Info("booth staff registered", "user_id", userID, "company_id", companyID)
	if s.auditor != nil {
		s.auditor.Record(ctx, audit.Entry{
			Action:     audit.ActionRegister,
			EntityType: audit.EntityUser,
			EntityID:   userID.String(),
			UserID:     admin.UserID,
			Details:    map[string]any{"company_id": companyID.String()},
		})
	}
	return Result{OK: true, Message: MsgRegistered, UserID: userID.String()}
}

// Message maps a validation error to its user-facing text.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrMissingFields):
		return MsgMissingFields
	case errors.Is(err, ErrInvalidCPF):
		return MsgInvalidCPF
	case errors.Is(err, ErrInvalidEmail):
		return MsgInvalidEmail
	case errors.Is(err, ErrCompanyNotFound):
		return MsgCompanyNotFound
	case errors.Is(err, ErrNotAllowed):
		return MsgNotAllowed
	default:
		return MsgFailed
	}
}

func serverMessage(err error, fallback string) string {
	if msg := backend.MessageOf(err); msg != "" {
		return msg
	}
	return fallback
}
