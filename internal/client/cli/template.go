package cli

import (
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/iudanet/infradash/internal/client/auth"
	"github.com/iudanet/infradash/internal/models"
)

const statusTemplate = `=== Session Status ===

Server:  {{ .Server }}
{{- if not .Authenticated }}
Status:  Not authenticated

Run 'infradash login' to authenticate.
{{- else }}
Status:  Authenticated
{{- if .HasActivity }}
Last activity:  {{ time .LastActivity }}
{{- end }}
Idle timeout:   {{ .IdleTimeout }}
{{- if .SessionExpired }}
⚠️  Session expired due to inactivity. Please login again.
{{- end }}
{{- if .HasToken }}
Token expires:  {{ time .TokenExpires }}
{{- if .TokenExpired }}
⚠️  Access token has expired. It will be refreshed on the next request.
{{- else }}
Time remaining: {{ .Remaining }}
{{- end }}
{{- else }}
Token expires:  unknown
{{- end }}
{{- end }}
`

const whoamiTemplate = `=== Current User ===

Name:      {{ .DisplayName }}
Username:  {{ .User.Username }}
ID:        {{ .User.ID }}
{{- if .User.Email }}
Email:     {{ .User.Email }}
{{- end }}
Role:      {{ role .User.IsSuperuser .User.IsStaff }}
{{- if .User.Groups }}
Groups:    {{ join .User.Groups ", " }}
{{- end }}
Permissions: {{ if .Permissions }}{{ join .Permissions ", " }}{{ else }}none{{ end }}
`

type statusView struct {
	LastActivity   time.Time
	TokenExpires   time.Time
	Server         string
	IdleTimeout    time.Duration
	Remaining      time.Duration
	Authenticated  bool
	HasActivity    bool
	SessionExpired bool
	HasToken       bool
	TokenExpired   bool
}

type whoamiView struct {
	User        *models.User
	DisplayName string
	Permissions []string
}

var funcs = template.FuncMap{
	"join": strings.Join,
	"time": func(t time.Time) string { return t.Local().Format(time.RFC3339) },
	"role": func(superuser, staff bool) string {
		switch {
		case superuser:
			return "superuser"
		case staff:
			return "staff"
		default:
			return "user"
		}
	},
}

var (
	statusTmpl = template.Must(template.New("status").Funcs(funcs).Parse(statusTemplate))
	whoamiTmpl = template.Must(template.New("whoami").Funcs(funcs).Parse(whoamiTemplate))
)

func parseExpiration(token string) (string, error) {
	exp, err := auth.ParseExpiration(token)
	if err != nil {
		return "", err
	}
	return exp.Local().Format(time.RFC3339), nil
}

// render выполняет шаблон в вывод CLI
func (c *Cli) render(tmpl *template.Template, data any) error {
	if err := tmpl.Execute(c.io, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", tmpl.Name(), err)
	}
	return nil
}
