package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/mcoot/competition-console/internal/api/response"
	"github.com/mcoot/competition-console/internal/model"
)

var (
	runningColor = color.New(color.FgGreen, color.Bold)
	cappedColor  = color.New(color.FgRed)
	dimColor     = color.New(color.Faint)
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		o.printJSON(map[string]string{"message": msg})
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.AuthResponse:
		o.printAdmin(v.Admin)
		fmt.Fprintf(o.w, "Session expires: %s\n", v.ExpiresAt.Local().Format(time.RFC1123))
	case response.Admin:
		o.printAdmin(v)
	case response.Competitor:
		o.printCompetitor(v)
	case response.CompetitorList:
		o.printCompetitorList(v)
	case response.NumberStatus:
		o.printNumberStatus(v)
	case response.AssignNumbersResponse:
		fmt.Fprintf(o.w, "Assigned %d competitor numbers\n", len(v.Numbers))
	case response.Session:
		o.printSession(v)
	case response.ActiveSession:
		if v.Active == nil {
			fmt.Fprintln(o.w, "No session is running")
			return
		}
		o.printSession(*v.Active)
	case response.Board:
		o.printBoard(v)
	case CountryList:
		o.printCountries(v)
	case response.Health:
		fmt.Fprintf(o.w, "Status: %s\n", v.Status)
		fmt.Fprintf(o.w, "Storage: %s\n", v.Storage)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// CountryList is the countries endpoint response
type CountryList struct {
	Countries []struct {
		Code string `json:"code"`
		Name string `json:"name"`
	} `json:"countries"`
}

func (o *Output) printAdmin(a response.Admin) {
	fmt.Fprintf(o.w, "Admin: %s (%s)\n", a.Email, a.ID)
	fmt.Fprintf(o.w, "Role: %s\n", a.Role)
}

func numberString(n *int) string {
	if n == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *n)
}

func (o *Output) printCompetitor(c response.Competitor) {
	fmt.Fprintf(o.w, "Competitor: %s %s (%s)\n", c.FirstName, c.LastName, c.ID)
	fmt.Fprintf(o.w, "Number: %s\n", numberString(c.CompetitorNumber))
	fmt.Fprintf(o.w, "Language: %s\n", c.Language)
	if c.Country != "" {
		fmt.Fprintf(o.w, "Country: %s (%s)\n", c.CountryName, c.Country)
	}
}

func (o *Output) printCompetitorList(l response.CompetitorList) {
	if len(l.Competitors) == 0 {
		fmt.Fprintln(o.w, "No competitors registered")
		return
	}
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NUMBER\tNAME\tLANGUAGE\tCOUNTRY\tID")
	for _, c := range l.Competitors {
		fmt.Fprintf(tw, "%s\t%s %s\t%s\t%s\t%s\n",
			numberString(c.CompetitorNumber), c.FirstName, c.LastName, c.Language, c.Country, c.ID)
	}
	_ = tw.Flush()
}

func (o *Output) printNumberStatus(s response.NumberStatus) {
	state := "open"
	if s.Locked {
		state = "locked"
	}
	fmt.Fprintf(o.w, "Numbers: %s\n", state)
	fmt.Fprintf(o.w, "Competitors: %d (%d numbered, %d without number)\n", s.Total, s.Assigned, s.Unnumbered)
	if len(s.Missing) > 0 {
		missing := make([]string, len(s.Missing))
		for i, n := range s.Missing {
			missing[i] = fmt.Sprintf("%d", n)
		}
		fmt.Fprintf(o.w, "Gaps: %s\n", strings.Join(missing, ", "))
	}
}

// sessionState renders a session's timer state, coloured when writing to a terminal
func sessionState(s *response.Session) string {
	switch {
	case s == nil:
		return dimColor.Sprint("--:--")
	case s.Running:
		return runningColor.Sprintf("%s running", s.Display)
	case s.Capped:
		return cappedColor.Sprintf("%s capped", s.Display)
	default:
		return s.Display
	}
}

func (o *Output) printSession(s response.Session) {
	fmt.Fprintf(o.w, "Session: %s day %d %s\n", s.CompetitorID, s.Day, s.Module)
	fmt.Fprintf(o.w, "Time: %s (%s remaining)\n", sessionState(&s), model.FormatSeconds(s.Remaining))
	if s.Running && s.StartTime != nil {
		fmt.Fprintf(o.w, "Started: %s\n", humanize.Time(*s.StartTime))
	} else if s.EndTime != nil {
		fmt.Fprintf(o.w, "Last stopped: %s\n", humanize.Time(*s.EndTime))
	}
}

func (o *Output) printBoard(b response.Board) {
	fmt.Fprintf(o.w, "Day %d (cap %s)\n", b.Day, model.FormatSeconds(b.Cap))
	if b.Active != nil {
		fmt.Fprintf(o.w, "Running: %s day %d %s\n", b.Active.CompetitorID, b.Active.Day, b.Active.Module)
	}
	if len(b.Rows) == 0 {
		fmt.Fprintln(o.w, "No competitors registered")
		return
	}

	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NUMBER\tNAME\tMORNING\tEVENING\tID")
	for _, row := range b.Rows {
		c := row.Competitor
		fmt.Fprintf(tw, "%s\t%s %s\t%s\t%s\t%s\n",
			numberString(c.CompetitorNumber), c.FirstName, c.LastName,
			sessionState(row.Sessions[string(model.ModuleMorning)]),
			sessionState(row.Sessions[string(model.ModuleEvening)]),
			c.ID)
	}
	_ = tw.Flush()
}

func (o *Output) printCountries(l CountryList) {
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)
	for _, c := range l.Countries {
		fmt.Fprintf(tw, "%s\t%s\n", c.Code, c.Name)
	}
	_ = tw.Flush()
}
