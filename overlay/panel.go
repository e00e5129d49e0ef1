//go:build gui

package overlay

import (
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
)

const (
	panelWidth  = 320
	panelHeight = 96
	barGap      = 3
	barAreaTop  = 36
)

var (
	barColorIdle  = color.RGBA{70, 70, 70, 255}
	barColorLive  = color.RGBA{0, 200, 120, 255}
	barColorWarn  = color.RGBA{230, 180, 0, 255}
	textColor     = color.RGBA{220, 220, 220, 255}
	detailColor   = color.RGBA{150, 150, 150, 255}
	errTextColor  = color.RGBA{230, 70, 70, 255}
	warnTextColor = color.RGBA{230, 180, 0, 255}
)

// PanelWidget draws the workflow title line and a smoothed spectrum
// bar display. SetContent is safe from any goroutine; repaints happen
// on the fyne thread from the animation ticker.
type PanelWidget struct {
	widget.BaseWidget
	mu      sync.Mutex
	content Content
	smooth  []float64
	stopCh  chan struct{}
}

func NewPanelWidget() *PanelWidget {
	p := &PanelWidget{stopCh: make(chan struct{})}
	p.ExtendBaseWidget(p)
	go p.animate()
	return p
}

func (p *PanelWidget) SetContent(c Content) {
	p.mu.Lock()
	p.content = c
	if p.smooth == nil || len(p.smooth) != len(c.Spectrum) {
		p.smooth = make([]float64, len(c.Spectrum))
	}
	// Fast attack, slow decay keeps the bars lively without flicker.
	for i, m := range c.Spectrum {
		if m > p.smooth[i] {
			p.smooth[i] = p.smooth[i]*0.2 + m*0.8
		} else {
			p.smooth[i] = p.smooth[i]*0.7 + m*0.3
		}
	}
	p.mu.Unlock()
}

func (p *PanelWidget) Stop() {
	select {
	case <-p.stopCh:
	default:
		close(p.stopCh)
	}
}

func (p *PanelWidget) animate() {
	ticker := time.NewTicker(33 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			fyne.Do(func() {
				p.Refresh()
			})
		}
	}
}

func (p *PanelWidget) MinSize() fyne.Size {
	return fyne.NewSize(panelWidth, panelHeight)
}

func (p *PanelWidget) CreateRenderer() fyne.WidgetRenderer {
	r := &panelRenderer{panel: p}
	r.title = canvas.NewText("", textColor)
	r.title.TextStyle.Bold = true
	r.title.TextSize = 14
	r.status = canvas.NewText("", detailColor)
	r.status.TextSize = 11
	for i := 0; i < 16; i++ {
		r.bars = append(r.bars, canvas.NewRectangle(barColorIdle))
	}
	return r
}

type panelRenderer struct {
	panel  *PanelWidget
	title  *canvas.Text
	status *canvas.Text
	bars   []*canvas.Rectangle
}

func (r *panelRenderer) Layout(size fyne.Size) {
	r.title.Move(fyne.NewPos(10, 6))
	r.status.Move(fyne.NewPos(10, size.Height-20))

	n := len(r.bars)
	barW := (size.Width - 20 - float32((n-1)*barGap)) / float32(n)
	for i, b := range r.bars {
		b.Move(fyne.NewPos(10+float32(i)*(barW+barGap), barAreaTop))
		b.Resize(fyne.NewSize(barW, size.Height-barAreaTop-24))
	}
}

func (r *panelRenderer) MinSize() fyne.Size {
	return r.panel.MinSize()
}

func (r *panelRenderer) Refresh() {
	r.panel.mu.Lock()
	c := r.panel.content
	smooth := append([]float64(nil), r.panel.smooth...)
	r.panel.mu.Unlock()

	title := c.Workflow
	if c.Phase != "" {
		title += " · " + c.Phase
	}
	r.title.Text = title
	r.title.Refresh()

	switch {
	case c.Err != "":
		r.status.Text = c.Err
		r.status.Color = errTextColor
	case c.WarmupWaiting:
		r.status.Text = "waiting for Bluetooth microphone..."
		r.status.Color = warnTextColor
	case c.QuietWarning:
		r.status.Text = "no voice detected"
		r.status.Color = warnTextColor
	default:
		r.status.Text = c.Detail
		r.status.Color = detailColor
	}
	r.status.Refresh()

	barColor := barColorLive
	if c.QuietWarning {
		barColor = barColorWarn
	}
	fullH := float32(panelHeight - barAreaTop - 24)
	for i, b := range r.bars {
		m := 0.0
		if i < len(smooth) {
			m = smooth[i]
		}
		h := float32(m) * fullH
		if h < 2 {
			h = 2
			b.FillColor = barColorIdle
		} else {
			b.FillColor = barColor
		}
		pos := b.Position()
		b.Move(fyne.NewPos(pos.X, barAreaTop+fullH-h))
		b.Resize(fyne.NewSize(b.Size().Width, h))
		b.Refresh()
	}
}

func (r *panelRenderer) Objects() []fyne.CanvasObject {
	objs := []fyne.CanvasObject{r.title, r.status}
	for _, b := range r.bars {
		objs = append(objs, b)
	}
	return objs
}

func (r *panelRenderer) Destroy() {
	r.panel.Stop()
}
