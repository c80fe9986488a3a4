package arbor

import (
	"slices"
	"sync"
)

// CommandArgs is raised when a command runs.
type CommandArgs struct {
	ArgsBase
	// Param is the value passed to Notify.
	Param any
	// Scope is the widget the command runs on. The zero path reaches every
	// widget that subscribed to the command.
	Scope WidgetPath
}

// DeliveryList targets the scope, or every subscriber for app-wide commands.
func (a *CommandArgs) DeliveryList(l *DeliveryList) {
	if a.Scope.IsZero() {
		l.SearchAll()
		return
	}
	l.InsertPath(a.Scope)
}

// Command is a statically declared action, like copy or undo. It runs when
// notified or when one of its shortcuts reaches the GestureManager unhandled.
// A command is enabled in an app while its Enabled var is true and something
// handles it: an app handler from On, or a widget with OnEvent on Event.
type Command struct {
	name      string
	event     *Event[*CommandArgs]
	shortcuts []Shortcut
}

type commandState struct {
	enabled   *RwVar[bool]
	shortcuts *RwVar[[]Shortcut]
}

var (
	commandsMu sync.Mutex
	commands   []*Command
)

// NewCommand declares a command with its default shortcuts. It panics with
// ErrAlreadyRegistered if name was already declared.
func NewCommand(name string, shortcuts ...Shortcut) *Command {
	c := &Command{
		name:      name,
		event:     NewEvent[*CommandArgs]("command:" + name),
		shortcuts: slices.Clone(shortcuts),
	}
	commandsMu.Lock()
	commands = append(commands, c)
	commandsMu.Unlock()
	return c
}

func (c *Command) Name() string { return c.name }

// Event is the event raised when the command runs. Widgets handle it with
// OnEvent.
func (c *Command) Event() *Event[*CommandArgs] { return c.event }

func (c *Command) state(app *App) *commandState {
	if app.commands == nil {
		app.commands = make(map[*Command]*commandState)
	}
	st, ok := app.commands[c]
	if !ok {
		st = &commandState{
			enabled:   NewVar(app, true),
			shortcuts: NewVar(app, slices.Clone(c.shortcuts)),
		}
		app.commands[c] = st
	}
	return st
}

// Enabled is the app switch of the command. It is true by default.
func (c *Command) Enabled(app *App) *RwVar[bool] { return c.state(app).enabled }

// Shortcuts lists the shortcuts that run the command in app.
func (c *Command) Shortcuts(app *App) *RwVar[[]Shortcut] { return c.state(app).shortcuts }

// HasHandlers reports whether an app handler or a widget handles the command.
func (c *Command) HasHandlers(app *App) bool { return c.event.HasSubscribers(app) }

// IsEnabled reports whether Notify would run the command.
func (c *Command) IsEnabled(app *App) bool {
	return c.Enabled(app).Get() && c.HasHandlers(app)
}

// On registers an app-level handler.
func (c *Command) On(app *App, fn func(*CommandArgs)) EventHandle {
	return c.event.On(app, fn)
}

// Notify runs the command on every subscriber. It reports false, and does
// nothing, when the command is not enabled.
func (c *Command) Notify(app *App, param any) bool {
	return c.NotifyScoped(app, WidgetPath{}, param)
}

// NotifyScoped runs the command on the widget at scope and its ancestors.
func (c *Command) NotifyScoped(app *App, scope WidgetPath, param any) bool {
	if !c.IsEnabled(app) {
		return false
	}
	c.event.Notify(app, &CommandArgs{ArgsBase: NewArgsBase(app.clock.Now()), Param: param, Scope: scope})
	return true
}

// findCommand returns the first declared command enabled in app with s among
// its shortcuts.
func findCommand(app *App, s Shortcut) *Command {
	commandsMu.Lock()
	cmds := slices.Clone(commands)
	commandsMu.Unlock()
	for _, c := range cmds {
		if c.IsEnabled(app) && slices.Contains(c.Shortcuts(app).Get(), s) {
			return c
		}
	}
	return nil
}
