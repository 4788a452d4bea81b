package registration

import (
	"context"
	"sync"
	"testing"

	"github.com/nerrad567/event-companion-core/internal/audit"
	"github.com/nerrad567/event-companion-core/internal/auth"
	"github.com/nerrad567/event-companion-core/internal/backend"
)

func TestFormatCPF(t *testing.T) {
	tests := map[string]string{
		"":                 "",
		"529":              "529",
		"5299":             "529.9",
		"529982":           "529.982",
		"5299822":          "529.982.2",
		"529982247":        "529.982.247",
		"5299822472":       "529.982.247-2",
		"52998224725":      "529.982.247-25",
		"529.982.247-25":   "529.982.247-25",
		"52998224725999":   "529.982.247-25",
		"abc529def982-247": "529.982.247",
	}
	for in, want := range tests {
		if got := FormatCPF(in); got != want {
			t.Errorf("FormatCPF(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidCPF(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"529.982.247-25", true},
		{"52998224725", true},
		{"529.982.247-24", false},
		{"529.982.247-15", false},
		{"111.111.111-11", false},
		{"000.000.000-00", false},
		{"5299822472", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ValidCPF(tt.in); got != tt.want {
				t.Errorf("ValidCPF(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

type fakeBackend struct {
	mu         sync.Mutex
	company    backend.ID
	companyErr error
	createErr  error
	linkErr    error
	created    []backend.NewUser
	links      [][2]string
}

func (f *fakeBackend) CompanyForUser(context.Context, string, string) (backend.ID, error) {
	return f.company, f.companyErr
}

func (f *fakeBackend) CreateUser(_ context.Context, _ string, u backend.NewUser) (backend.ID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, u)
	return "501", nil
}

func (f *fakeBackend) LinkUserToCompany(_ context.Context, _, userID, companyID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.linkErr != nil {
		return f.linkErr
	}
	f.links = append(f.links, [2]string{userID, companyID})
	return nil
}

type captureAuditor struct{ entries []audit.Entry }

func (c *captureAuditor) Record(_ context.Context, e audit.Entry) { c.entries = append(c.entries, e) }

var boothAdmin = &auth.Session{UserID: "9", Role: auth.RoleEstandeAdmin, Token: "tok-9"}

func validRequest() Request {
	return Request{Name: " Bia Costa ", CPF: "529.982.247-25", Phone: "11999990000", Email: " Bia@Example.test "}
}

func TestRegister_Success(t *testing.T) {
	b := &fakeBackend{company: "emp-3"}
	a := &captureAuditor{}
	svc := NewService(b, a, nil)

	res := svc.Register(t.Context(), boothAdmin, validRequest())
	if !res.OK || res.Message != MsgRegistered || res.UserID != "501" {
		t.Fatalf("Register() = %+v", res)
	}

	u := b.created[0]
	if u.Role != "estande" || u.CPF != "52998224725" || u.Email != "bia@example.test" || u.Password != u.Email {
		t.Errorf("created user = %+v", u)
	}
	if u.Name != "Bia Costa" || u.ZIP != "" || u.Score != 0 {
		t.Errorf("created user = %+v, want trimmed name and empty address", u)
	}
	if len(b.links) != 1 || b.links[0] != [2]string{"501", "emp-3"} {
		t.Errorf("links = %v", b.links)
	}
	if len(a.entries) != 1 || a.entries[0].Action != audit.ActionRegister || a.entries[0].UserID != "9" {
		t.Errorf("audit = %+v", a.entries)
	}
}

func TestRegister_Failures(t *testing.T) {
	tests := []struct {
		name        string
		session     *auth.Session
		backend     *fakeBackend
		mutate      func(*Request)
		wantMsg     string
		wantCreated int
	}{
		{
			name:    "booth staff may not register",
			session: &auth.Session{UserID: "4", Role: auth.RoleEstande, Token: "t"},
			backend: &fakeBackend{company: "emp-3"},
			wantMsg: MsgNotAllowed,
		},
		{
			name:    "no session",
			backend: &fakeBackend{company: "emp-3"},
			wantMsg: MsgNotAllowed,
		},
		{
			name:    "invalid cpf",
			backend: &fakeBackend{company: "emp-3"},
			mutate:  func(r *Request) { r.CPF = "123.456.789-00" },
			wantMsg: MsgInvalidCPF,
		},
		{
			name:    "missing phone",
			backend: &fakeBackend{company: "emp-3"},
			mutate:  func(r *Request) { r.Phone = "  " },
			wantMsg: MsgMissingFields,
		},
		{
			name:    "bad email",
			backend: &fakeBackend{company: "emp-3"},
			mutate:  func(r *Request) { r.Email = "not-an-email" },
			wantMsg: MsgInvalidEmail,
		},
		{
			name:    "company not found",
			backend: &fakeBackend{},
			wantMsg: MsgCompanyNotFound,
		},
		{
			name:    "create rejected with server message",
			backend: &fakeBackend{company: "emp-3", createErr: &backend.APIError{Status: 409, Message: "Email já cadastrado"}},
			wantMsg: "Email já cadastrado",
		},
		{
			name:        "link failure",
			backend:     &fakeBackend{company: "emp-3", linkErr: &backend.APIError{Status: 500}},
			wantMsg:     MsgLinkFailed,
			wantCreated: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := tt.session
			if sess == nil && tt.name != "no session" {
				sess = boothAdmin
			}
			req := validRequest()
			if tt.mutate != nil {
				tt.mutate(&req)
			}
			a := &captureAuditor{}
			res := NewService(tt.backend, a, nil).Register(t.Context(), sess, req)
			if res.OK || res.Message != tt.wantMsg {
				t.Errorf("Register() = %+v, want message %q", res, tt.wantMsg)
			}
			if len(tt.backend.created) != tt.wantCreated {
				t.Errorf("created %d users, want %d", len(tt.backend.created), tt.wantCreated)
			}
			if len(a.entries) != 0 {
				t.Errorf("failed registration audited: %+v", a.entries)
			}
		})
	}
}
