package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// ID is an identifier the API sends either as a JSON string or a number.
type ID string

// UnmarshalJSON accepts "42", 42 and null.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id is neither string nor number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// String returns the identifier as a plain string.
func (id ID) String() string { return string(id) }

// Timestamp is a Firestore-style {_seconds, _nanoseconds} value, also
// accepted as an RFC 3339 string or an "HH:MM..." clock string.
type Timestamp struct {
	Time  time.Time
	Clock string // set when the API sent a bare clock string
}

// UnmarshalJSON decodes any of the timestamp encodings the API uses.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*t = Timestamp{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if parsed, err := time.Parse(time.RFC3339, s); err == nil {
			*t = Timestamp{Time: parsed}
			return nil
		}
		*t = Timestamp{Clock: s}
		return nil
	}
	var fs struct {
		Seconds     int64 `json:"_seconds"`
		Nanoseconds int64 `json:"_nanoseconds"`
	}
	if err := json.Unmarshal(b, &fs); err != nil {
		return fmt.Errorf("decoding timestamp: %w", err)
	}
	*t = Timestamp{Time: time.Unix(fs.Seconds, fs.Nanoseconds).UTC()}
	return nil
}

// IsZero reports whether no timestamp was sent.
func (t Timestamp) IsZero() bool {
	return t.Time.IsZero() && t.Clock == ""
}

// HourMinute renders the timestamp as "HH:MM" in loc. A clock string is
// truncated to its first five characters.
func (t Timestamp) HourMinute(loc *time.Location) string {
	if t.Clock != "" {
		if len(t.Clock) > 5 {
			return t.Clock[:5]
		}
		return t.Clock
	}
	if t.Time.IsZero() {
		return ""
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.Time.In(loc).Format("15:04")
}

// User is the account object returned by login.
type User struct {
	ID     ID     `json:"id"`
	Role   string `json:"Role"`
	Name   string `json:"Nome,omitempty"`
	Email  string `json:"email,omitempty"`
	Ticket string `json:"ticket,omitempty"`

	MustChangePassword bool `json:"mustChangePassword,omitempty"`
}

// LoginResponse is the body of a successful POST /auth/login.
type LoginResponse struct {
	User               User   `json:"user"`
	Token              string `json:"token"`
	MustChangePassword bool   `json:"mustChangePassword,omitempty"`
}

// Event is an entry of GET /eventos.
type Event struct {
	ID           ID        `json:"id"`
	Name         string    `json:"nomeEvento"`
	Photo        string    `json:"foto,omitempty"`
	Date         Timestamp `json:"dataEvento"`
	Participants int       `json:"participantes,omitempty"`
	Street       string    `json:"logradouro,omitempty"`
	Number       string    `json:"numero,omitempty"`
	District     string    `json:"bairro,omitempty"`
	City         string    `json:"cidade,omitempty"`
	State        string    `json:"estado,omitempty"`
	ZIP          string    `json:"cep,omitempty"`
}

// EventDetails is the body of GET /eventos/{id}.
type EventDetails struct {
	ID    ID        `json:"id"`
	Name  string    `json:"nomeEvento"`
	Start Timestamp `json:"dataInicio"`
	End   Timestamp `json:"dataFim"`
	Map   string    `json:"mapaEvento,omitempty"`
}

// AgendaItem is a track or stage of an event agenda.
type AgendaItem struct {
	ID   ID     `json:"id"`
	Name string `json:"nome"`
}

// Agenda is the body of GET /agenda/evento/{id}.
type Agenda struct {
	Tracks []AgendaItem `json:"trilhas"`
	Stages []AgendaItem `json:"palcos"`
}

// Duration is the {hours, minutes} duration object of a lecture.
type Duration struct {
	Hours   *int `json:"hours,omitempty"`
	Minutes *int `json:"minutes,omitempty"`
}

// String renders "45 min" or "2 h".
func (d Duration) String() string {
	switch {
	case d.Minutes != nil:
		return strconv.Itoa(*d.Minutes) + " min"
	case d.Hours != nil:
		return strconv.Itoa(*d.Hours) + " h"
	default:
		return ""
	}
}

// Lecture is one talk of GET /programacao_evento/{event}/{stage}/{track}.
type Lecture struct {
	ID           ID        `json:"id"`
	Title        string    `json:"titulo_palestra"`
	Description  string    `json:"descricao_palestra,omitempty"`
	SpeakerName  string    `json:"nome_palestrante,omitempty"`
	SpeakerPhoto string    `json:"foto_palestrante,omitempty"`
	SpeakerRole  string    `json:"cargo_palestrante,omitempty"`
	SpeakerOrg   string    `json:"empresa_palestrante,omitempty"`
	SpeakerBio   string    `json:"minibio_palestrante,omitempty"`
	LinkedIn     string    `json:"linkedin_palestrante,omitempty"`
	Instagram    string    `json:"instagram_palestrante,omitempty"`
	Facebook     string    `json:"facebook_palestrante,omitempty"`
	Track        string    `json:"nometrilha,omitempty"`
	Stage        string    `json:"nomepalco,omitempty"`
	Location     string    `json:"local,omitempty"`
	Duration     Duration  `json:"duracao"`
	Time         Timestamp `json:"hora"`
	Kind         string    `json:"tipo,omitempty"`
}

// Speaker is an entry of GET /palestrantes.
type Speaker struct {
	ID       ID     `json:"id"`
	Name     string `json:"nome"`
	Photo    string `json:"foto,omitempty"`
	Role     string `json:"cargo,omitempty"`
	Company  string `json:"empresa,omitempty"`
	Bio      string `json:"minibio,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
}

// Sponsor is an entry of GET /empresas.
type Sponsor struct {
	ID          ID     `json:"id"`
	Name        string `json:"nomeEmpresa"`
	Tier        string `json:"categoriaPatrocinio"`
	Logo        string `json:"logo,omitempty"`
	Description string `json:"descricao,omitempty"`
	Website     string `json:"site_web,omitempty"`
	Phone       string `json:"telefone,omitempty"`
	Contact     string `json:"contato_comercial,omitempty"`
	WhatsApp    string `json:"site,omitempty"`
}

// Category is an entry of GET /categorias-patrocinio.
type Category struct {
	ID   ID     `json:"id"`
	Type string `json:"Tipo"`
}

// Favourite links an attendee to a sponsor company.
type Favourite struct {
	ID        ID `json:"id"`
	CompanyID ID `json:"ID_empresa"`
	UserID    ID `json:"ID_usuario,omitempty"`
}

// Rating is a talk rating from /nota-palestras.
type Rating struct {
	LectureID ID     `json:"ID_palestra"`
	UserID    ID     `json:"ID_usuario"`
	Stars     int    `json:"nota_palestra"`
	Reason    string `json:"motivo,omitempty"`
}

// BoothCheckin is a row of GET /checkins/estande/{companyId}.
type BoothCheckin struct {
	Name    string `json:"Nome"`
	Title   string `json:"Cargo"`
	Company string `json:"Empresa"`
	Email   string `json:"Email"`
	Phone   string `json:"Telefone_Celular"`
}

// NewUser is the body of POST /usuarios.
type NewUser struct {
	Name     string `json:"Nome"`
	CPF      string `json:"CPF"`
	Phone    string `json:"Telefone"`
	Email    string `json:"email"`
	Role     string `json:"Role"`
	Password string `json:"senha"`

	ZIP      string `json:"CEP"`
	Number   string `json:"Numero"`
	Street   string `json:"Logradouro"`
	District string `json:"Bairro"`
	City     string `json:"Cidade"`
	State    string `json:"Estado"`
	Score    int    `json:"Pontuacao"`
}

// Banner is the body of GET /banner/current.
type Banner struct {
	ID    ID     `json:"id"`
	URL   string `json:"url"`
	Title string `json:"titulo,omitempty"`
	Link  string `json:"link,omitempty"`
}
