// Package arbor is the runtime core of a retained-mode reactive GUI.
//
// Arbor owns the widget trees of every window, drives them through a fixed
// update cycle and turns raw view input into routed, hit-tested events. It
// does not draw: a view process receives display lists and reports input
// back. Two views are provided, package ebitenview for [Ebitengine] and
// package tcellview for terminals, plus [HeadlessView] for tests.
//
// # Quick start
//
//	app := arbor.NewApp()
//	title := arbor.NewVar(app, "Hello")
//	app.OpenWindow(arbor.WindowConfig{
//		Title: "demo",
//		Size:  arbor.Size{Width: 320, Height: 240},
//		Root: arbor.NewWidget(0, arbor.FillColor(
//			arbor.Text(title),
//			arbor.Const(arbor.ColorBlack),
//		)),
//	})
//	app.Run(ctx)
//
// # Variables
//
// State lives in variables ([Var]). [NewVar] creates a shared value; writes
// are applied in the next update pass, so every reader sees the same value
// for a whole pass. [Map], [Bind] and [Merge] derive variables, [When]
// selects between them and [ContextVar] resolves through the widget tree.
// [App.Animate] and [Ease] write a variable every frame; a newer write of
// higher importance replaces a running animation.
//
// # Widgets
//
// A widget is a chain of [UiNode] values wrapped in a [Widget]. Property
// nodes like [Margin], [FillColor] and [OnEvent] wrap a child and add one
// behavior. Nodes request work through the [Context]: an info rebuild,
// layout, a full render or a frame update.
//
// # Update cycle
//
// [App.Update] runs one cycle: RECEIVE pulls raw input and posted closures,
// then EVENT and UPDATE alternate until nothing is pending, then INFO
// rebuilds changed info trees, LAYOUT sizes widgets, RENDER sends frames and
// TICK advances animations and timers. [App.Run] loops until the context is
// done or the last window closes.
//
// # Input
//
// Raw view events reach the input managers: [KeyboardManager],
// [MouseManager], [TouchManager] and [FocusManager]. They publish routed
// events like [KeyInputEvent], [MouseClickEvent] and [TouchTapEvent] to the
// widgets along the interaction path, honoring [Interactivity] and
// [PointerCapture].
//
// # Focus
//
// Widgets become focusable with [Focusable]. [FocusScope] groups them for
// Tab and arrow-key navigation; the focus manager remembers the last
// focused widget of every scope and restores it when focus returns.
//
// [Ebitengine]: https://ebitengine.org
package arbor
