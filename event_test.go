package arbor

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type pingArgs struct {
	ArgsBase
	Target WidgetPath
	Search bool
}

func (a *pingArgs) DeliveryList(l *DeliveryList) {
	if a.Search {
		l.SearchAll()
		return
	}
	l.InsertPath(a.Target)
}

var pingEvent = NewEvent[*pingArgs]("test-ping")

type recordingSink struct{ recs []EventRecord }

func (s *recordingSink) EmitEvent(rec EventRecord) { s.recs = append(s.recs, rec) }

// pingTree opens parent > child, logging every handler call into log.
func pingTree(t *testing.T, app *App, log *[]string) (*Window, WidgetID, WidgetID) {
	t.Helper()
	parent, child := NewWidgetID(), NewWidgetID()
	note := func(s string) func(*Context, *pingArgs) {
		return func(*Context, *pingArgs) { *log = append(*log, s) }
	}
	childNode := OnEvent(SizeNode(NodeBase{}, Const(Size{50, 50})), pingEvent, note("child"))
	parentNode := OnEvent(Stack(0, NewWidget(child, childNode)), pingEvent, note("parent"))
	parentNode = OnPreviewEvent(parentNode, pingEvent, note("parent preview"))
	win := openWindow(t, app, NewWidget(parent, parentNode))
	return win, parent, child
}

func childPath(t *testing.T, win *Window, id WidgetID) WidgetPath {
	t.Helper()
	info, ok := win.Tree().Get(id)
	if !ok {
		t.Fatalf("%v not in tree", id)
	}
	return info.Path()
}

func TestEventHandlerOrder(t *testing.T) {
	app, clock := newTestApp(t)
	var log []string
	win, _, child := pingTree(t, app, &log)
	pingEvent.OnPreview(app, func(*pingArgs) { log = append(log, "app preview") })
	pingEvent.On(app, func(*pingArgs) { log = append(log, "app") })

	pingEvent.Notify(app, &pingArgs{ArgsBase: NewArgsBase(clock.Now()), Target: childPath(t, win, child)})
	if len(log) != 0 {
		t.Fatal("event delivered before Update")
	}
	app.Update()

	want := []string{"app preview", "parent preview", "child", "parent", "app"}
	if diff := cmp.Diff(want, log); diff != "" {
		t.Errorf("handler order (-want +got):\n%s", diff)
	}
}

func TestEventStopPropagation(t *testing.T) {
	app, clock := newTestApp(t)
	var log []string
	win, parent, child := pingTree(t, app, &log)
	pingEvent.On(app, func(*pingArgs) { log = append(log, "app") })
	stop := pingEvent.OnPreview(app, func(a *pingArgs) { a.Propagation().Stop() })

	pingEvent.Notify(app, &pingArgs{ArgsBase: NewArgsBase(clock.Now()), Target: childPath(t, win, child)})
	app.Update()
	if len(log) != 0 {
		t.Errorf("handlers ran after preview stopped propagation: %v", log)
	}

	stop.Unsubscribe()
	pingEvent.Notify(app, &pingArgs{ArgsBase: NewArgsBase(clock.Now()), Target: childPath(t, win, parent)})
	app.Update()
	want := []string{"parent preview", "parent", "app"}
	if diff := cmp.Diff(want, log); diff != "" {
		t.Errorf("after unsubscribe (-want +got):\n%s", diff)
	}
}

func TestEventSearchAllReachesSubscribers(t *testing.T) {
	app, clock := newTestApp(t)
	var log []string
	pingTree(t, app, &log)
	if !pingEvent.HasSubscribers(app) {
		t.Fatal("OnEvent widgets did not subscribe")
	}

	pingEvent.Notify(app, &pingArgs{ArgsBase: NewArgsBase(clock.Now()), Search: true})
	app.Update()

	slices.Sort(log)
	want := []string{"child", "parent", "parent preview"}
	if diff := cmp.Diff(want, log); diff != "" {
		t.Errorf("search all delivery (-want +got):\n%s", diff)
	}
}

func TestEventSinkRecordsDelivery(t *testing.T) {
	sink := &recordingSink{}
	app, clock := newTestApp(t, WithEventSink(sink))
	var log []string
	win, _, child := pingTree(t, app, &log)
	sink.recs = nil

	pingEvent.Notify(app, &pingArgs{ArgsBase: NewArgsBase(clock.Now()), Target: childPath(t, win, child)})
	app.Update()

	var got *EventRecord
	for i := range sink.recs {
		if sink.recs[i].Name == "test-ping" {
			got = &sink.recs[i]
		}
	}
	if got == nil {
		t.Fatal("sink missed the event")
	}
	if !slices.Equal(got.Targets, []WidgetID{child}) || got.Stopped {
		t.Errorf("record targets %v stopped %v", got.Targets, got.Stopped)
	}
	if !got.Timestamp.Equal(clock.Now()) {
		t.Errorf("record timestamp %v", got.Timestamp)
	}
}

func TestEventNameRegisteredTwice(t *testing.T) {
	if _, err := TryNewEvent[*pingArgs]("test-ping"); !errors.Is(err, ErrAlreadyRegistered) {
		t.Errorf("err = %v, want ErrAlreadyRegistered", err)
	}
	if pingEvent.Name() != "test-ping" {
		t.Errorf("Name = %q", pingEvent.Name())
	}
}

func TestCancelableIsIndependentOfPropagation(t *testing.T) {
	c := NewCancelable()
	base := NewArgsBase(time.Unix(0, 0))
	c.Cancel()
	if !c.CancelRequested() || base.Propagation().IsStopped() {
		t.Error("cancel touched propagation")
	}
	var zero Cancelable
	zero.Cancel()
	if zero.CancelRequested() {
		t.Error("zero Cancelable reports cancel")
	}

	shared := SharedArgsBase(time.Unix(0, 0), base.Propagation())
	shared.Propagation().Stop()
	if !base.Propagation().IsStopped() {
		t.Error("derived args do not share propagation")
	}
}
