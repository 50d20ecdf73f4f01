package web

import (
	"bytes"
	"html/template"

	"github.com/jaminalder/tictactoe/internal/app"
	"github.com/jaminalder/tictactoe/internal/domain"
)

type templates struct {
	base  *template.Template
	game  *template.Template
	setup *template.Template
	board *template.Template
	index *template.Template

	// setupFragment swaps into #board when a session is back in setup.
	setupFragment *template.Template
}

var playerTypes = []domain.PlayerType{domain.Human, domain.AutomatedEasy, domain.AutomatedHard}

func funcs() template.FuncMap {
	return template.FuncMap{
		"playerTypes": func() []domain.PlayerType { return playerTypes },
		"eq":          func(a, b any) bool { return a == b },
	}
}

func loadTemplates() *templates {
	base := template.Must(template.New("base").Funcs(funcs()).Parse(`<!doctype html><html><head>
<meta charset="utf-8"/>
<title>Tic Tac Toe</title>
<script src="https://unpkg.com/htmx.org@1.9.12"></script>
<script src="https://unpkg.com/htmx.org/dist/ext/sse.js"></script>
</head><body>{{template "content" .}}</body></html>`))
	template.Must(base.New("board").Parse(boardTemplate))
	template.Must(base.New("setup").Parse(setupTemplate))
	index := template.Must(template.Must(base.Clone()).New("content").Parse(`<h1>Tic Tac Toe</h1>{{template "setup" .}}`))
	setup := template.Must(template.Must(base.Clone()).New("content").Parse(`<h1>Tic Tac Toe</h1>{{template "setup" .}}`))
	game := template.Must(template.Must(base.Clone()).New("content").Parse(`
<h1 class="game-title">Tic Tac Toe</h1>
<div hx-ext="sse" sse-connect="/game/{{.ID}}/events">
  <div sse-swap="board" hx-target="#board" hx-swap="outerHTML">{{template "board" .}}</div>
</div>`))
	board := template.Must(template.New("board_only").Funcs(funcs()).Parse(boardTemplate))
	setupFragment := template.Must(template.New("setup_only").Funcs(funcs()).Parse(`<div id="board">{{template "setup" .}}</div>`))
	template.Must(setupFragment.New("setup").Parse(setupTemplate))
	return &templates{base: base, game: game, setup: setup, board: board, index: index, setupFragment: setupFragment}
}

func renderTemplate(t *template.Template, name string, data any) []byte {
	var buf bytes.Buffer
	if name == "" {
		_ = t.Execute(&buf, data)
	} else {
		_ = t.ExecuteTemplate(&buf, name, data)
	}
	return buf.Bytes()
}

const setupTemplate = `
<form id="setup" action="{{.Action}}" method="post">
  {{range $side := .Sides}}
  <label>Player {{$side.Name}}
    <select name="{{$side.Field}}">
      {{range $t := playerTypes}}
      <option value="{{$t}}"{{if eq $t $side.Type}} selected{{end}}>{{$t}}</option>
      {{end}}
    </select>
  </label>
  {{end}}
  <button type="submit">Start Game</button>
</form>`

const boardTemplate = `
<div id="board">
  {{if .Error}}
  <div class="alert">{{.Error}}</div>
  {{end}}
  <div class="status{{if .Winner}} winner{{else if .Draw}} draw{{end}}">{{.Status}}</div>
  {{if .Finished}}
  <form hx-post="/game/{{.ID}}/restart" action="/game/{{.ID}}/restart" method="post">
    <button type="submit" class="restart-hint">Click to play again</button>
  </form>
  {{end}}
  <div class="grid">
    {{range .Cells}}
    <form hx-post="/game/{{$.ID}}/play" hx-target="#board" hx-swap="outerHTML" method="post">
      <input type="hidden" name="cell" value="{{.Index}}">
      <button type="submit" class="square">{{.Mark}}</button>
    </form>
    {{end}}
  </div>
  <ol class="history">
    {{range .History}}
    <li>
      <form hx-post="/game/{{$.ID}}/rewind" hx-target="#board" hx-swap="outerHTML" method="post">
        <input type="hidden" name="step" value="{{.Index}}">
        <button type="submit"{{if .Current}} class="current"{{end}}>{{.Label}}</button>
      </form>
    </li>
    {{end}}
  </ol>
  <div class="players">X: {{.X}} / O: {{.O}}</div>
</div>
`

type cellView struct {
	Index int
	Mark  string
}

type entryView struct {
	Index   int
	Label   string
	Current bool
}

type boardView struct {
	ID       string
	Error    string
	Status   string
	Winner   bool
	Draw     bool
	Finished bool
	Cells    []cellView
	History  []entryView
	X, O     domain.PlayerType
}

type sideView struct {
	Name  string
	Field string
	Type  domain.PlayerType
}

type setupView struct {
	ID     string
	Action string
	Sides  []sideView
}

// status follows the original wording: winner, draw or next player.
func status(g *domain.Game) string {
	out := g.CurrentOutcome()
	switch out.Result {
	case domain.Won:
		return "Winner: " + out.Winner.String()
	case domain.Draw:
		return "Draw!"
	}
	return "Next player: " + g.SideToMove().String()
}

func newBoardView(gs app.GameState, errMsg string) boardView {
	g := gs.Game
	out := g.CurrentOutcome()
	v := boardView{
		ID:       gs.ID,
		Error:    errMsg,
		Status:   status(g),
		Winner:   out.Result == domain.Won,
		Draw:     out.Result == domain.Draw,
		Finished: out.Decided(),
		X:        g.PlayerType(domain.X),
		O:        g.PlayerType(domain.O),
	}
	for i, c := range g.CurrentBoard() {
		v.Cells = append(v.Cells, cellView{Index: i, Mark: c.String()})
	}
	for i, label := range g.Labels() {
		v.History = append(v.History, entryView{Index: i, Label: label, Current: i == g.Cursor()})
	}
	return v
}

func newSetupView(id string, x, o domain.PlayerType) setupView {
	action := "/game"
	if id != "" {
		action = "/game/" + id + "/start"
	}
	return setupView{
		ID:     id,
		Action: action,
		Sides: []sideView{
			{Name: "X", Field: "x", Type: x},
			{Name: "O", Field: "o", Type: o},
		},
	}
}
