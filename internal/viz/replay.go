package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/moosim/internal/dynamo"
)

const (
	frameRate  = 30
	plotWidth  = 70
	plotHeight = 12
	// A replay at the default stride lasts about this many frames.
	replayFrames = 300
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Replay steps through a recorded trajectory. The trajectory is only read.
type Replay struct {
	title   string
	traj    *dynamo.Trajectory
	head    int
	stride  int
	running bool
	series  int
	width   int
}

func NewReplay(title string, traj *dynamo.Trajectory) Replay {
	return Replay{
		title:   title,
		traj:    traj,
		stride:  max(traj.Len()/replayFrames, 1),
		running: true,
		width:   plotWidth,
	}
}

// Run takes over the terminal until the user quits.
func (r Replay) Run() error {
	_, err := tea.NewProgram(r, tea.WithAltScreen()).Run()
	return err
}

func (r Replay) Head() int     { return r.head }
func (r Replay) Stride() int   { return r.stride }
func (r Replay) Running() bool { return r.running }
func (r Replay) Series() int   { return r.series }

func (r Replay) Init() tea.Cmd { return tick() }

func (r Replay) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return r, tea.Quit
		case " ":
			r.running = !r.running
			if r.running && r.head == r.last() {
				r.head = 0
			}
		case "r":
			r.head = 0
		case "[", "left", "h":
			r.running = false
			r.seek(-r.stride)
		case "]", "right", "l":
			r.running = false
			r.seek(r.stride)
		case "tab":
			if n := r.components(); n > 0 {
				r.series = (r.series + 1) % n
			}
		case "+", "=":
			r.stride *= 2
		case "-", "_":
			r.stride = max(r.stride/2, 1)
		}
	case tea.WindowSizeMsg:
		r.width = max(min(msg.Width-12, plotWidth*2), 20)
	case TickMsg:
		if r.running {
			r.seek(r.stride)
			if r.head == r.last() {
				r.running = false
			}
		}
		return r, tick()
	}
	return r, nil
}

func (r *Replay) seek(delta int) {
	r.head = min(max(r.head+delta, 0), r.last())
}

func (r Replay) last() int { return max(r.traj.Len()-1, 0) }

func (r Replay) components() int { return r.traj.XSize() + r.traj.USize() }

// component returns the series plotted for index i: states first, then
// controls.
func (r Replay) component(i int) ([]float64, string) {
	if i < r.traj.XSize() {
		return r.traj.X[i], fmt.Sprintf("x%d", i)
	}
	i -= r.traj.XSize()
	return r.traj.U[i], fmt.Sprintf("u%d", i)
}

func (r Replay) View() string {
	var b strings.Builder
	b.WriteString(Title.Render(strings.ToUpper(r.title)) + "\n")

	if r.traj.Empty() {
		b.WriteString(Subtle.Render("no samples") + "\n")
		return b.String()
	}

	status := StatusOK.Render("PLAYING")
	if !r.running {
		status = StatusPaused.Render("PAUSED")
	}
	fmt.Fprintf(&b, "%s  sample %d/%d  stride %d\n\n", status, r.head+1, r.traj.Len(), r.stride)

	b.WriteString(Metric("t", r.traj.T[r.head]) + "\n")
	for i := 0; i < r.components(); i++ {
		values, name := r.component(i)
		b.WriteString(Metric(name, values[r.head]) + "\n")
	}
	b.WriteString("\n")

	if r.components() > 0 {
		values, name := r.component(r.series)
		if r.head > 0 {
			b.WriteString(asciigraph.Plot(values[:r.head+1],
				asciigraph.Height(plotHeight),
				asciigraph.Width(r.width),
				asciigraph.Caption(fmt.Sprintf("%s over [%g, %g]", name, r.traj.T[0], r.traj.T[r.head])),
			))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n" + KeyHint.Render("space pause  [ ] step  + - stride  tab series  r rewind  q quit") + "\n")
	return b.String()
}
