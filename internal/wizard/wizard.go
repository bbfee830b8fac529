// Package wizard collects project configuration interactively for the init
// command.
package wizard

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/template"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/pitchperfect/pitchperfect/internal/projectconfig"
)

// ProjectSpec holds all fields collected during the interactive wizard.
type ProjectSpec struct {
	DataDir          string
	Model            string
	ServerPort       int
	EncouragingVoice string
	HarshVoice       string
}

const configTemplate = `# pitchperfect project configuration
server:
  port: {{ .ServerPort }}

model:
  name: {{ .Model }}

storage:
  data_dir: {{ .DataDir }}
{{- if or .EncouragingVoice .HarshVoice }}

voices:
{{- if .EncouragingVoice }}
  encouraging: {{ .EncouragingVoice }}
{{- end }}
{{- if .HarshVoice }}
  harsh: {{ .HarshVoice }}
{{- end }}
{{- end }}
`

// RunProjectWizard runs an interactive huh form to collect project settings.
func RunProjectWizard(in io.Reader, out io.Writer) (*ProjectSpec, error) {
	var (
		dataDir          = projectconfig.DefaultDataDir
		model            = projectconfig.DefaultModel
		portRaw          = strconv.Itoa(projectconfig.DefaultServerPort)
		encouragingVoice string
		harshVoice       string
	)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Data directory").
				Description("Where jobs, results, and uploads are stored").
				Placeholder(projectconfig.DefaultDataDir).
				Value(&dataDir).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("data directory is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Model").
				Description("Primary generative model id").
				Placeholder(projectconfig.DefaultModel).
				Value(&model),
			huh.NewInput().
				Title("Server port").
				Description("Port for the evaluation API server").
				Placeholder(strconv.Itoa(projectconfig.DefaultServerPort)).
				Value(&portRaw).
				Validate(func(s string) error {
					n, err := strconv.Atoi(strings.TrimSpace(s))
					if err != nil || n < 1 || n > 65535 {
						return fmt.Errorf("port must be a number between 1 and 65535")
					}
					return nil
				}),
			huh.NewInput().
				Title("Encouraging voice id").
				Description("Optional persona voice for narration playback").
				Value(&encouragingVoice),
			huh.NewInput().
				Title("Harsh voice id").
				Description("Optional persona voice for narration playback").
				Value(&harshVoice),
		),
	).
		WithInput(in).
		WithOutput(out)

	// Use accessible mode for non-TTY input (e.g., tests, piped input).
	if f, ok := in.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		form = form.WithAccessible(true)
	}

	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("wizard failed: %w", err)
	}

	port, err := strconv.Atoi(strings.TrimSpace(portRaw))
	if err != nil {
		return nil, fmt.Errorf("invalid port %q", portRaw)
	}

	return &ProjectSpec{
		DataDir:          strings.TrimSpace(dataDir),
		Model:            strings.TrimSpace(model),
		ServerPort:       port,
		EncouragingVoice: strings.TrimSpace(encouragingVoice),
		HarshVoice:       strings.TrimSpace(harshVoice),
	}, nil
}

// GenerateConfigYAML renders a .pitchperfect.yaml from the given spec.
func GenerateConfigYAML(spec *ProjectSpec) (string, error) {
	tmpl, err := template.New("config").Parse(configTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, spec); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return buf.String(), nil
}
