package internal

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/gdamore/tcell/v2"
)

// Color is a parsed highlight colour. The zero value is the terminal default.
type Color struct {
	named bool
	attr  color.Attribute // foreground attribute of a named colour
	rgb   bool
	r     uint8
	g     uint8
	b     uint8
}

// IsDefault reports whether c leaves the terminal colour untouched.
func (c Color) IsDefault() bool {
	return !c.rgb && (!c.named || c.attr == color.Reset)
}

func (c Color) String() string {
	switch {
	case c.rgb:
		return fmt.Sprintf("#%02x%02x%02x", c.r, c.g, c.b)
	case c.named:
		for name, attr := range namedColors {
			if attr == c.attr {
				return name
			}
		}
	}
	return "default"
}

var (
	hexRegex  = regexp.MustCompile(`^#([a-fA-F0-9]{2})([a-fA-F0-9]{2})([a-fA-F0-9]{2})$`)
	rgbaRegex = regexp.MustCompile(`^rgba?\(\s*(\d{1,3})\s*,\s*(\d{1,3})\s*,\s*(\d{1,3})\s*(?:,\s*([0-9]*\.?[0-9]+)\s*)?\)$`)
)

var (
	colorCache = make(map[string]Color, 32)
	colorMutex sync.RWMutex
)

var namedColors = map[string]color.Attribute{
	"black":   color.FgBlack,
	"red":     color.FgRed,
	"green":   color.FgGreen,
	"yellow":  color.FgYellow,
	"blue":    color.FgBlue,
	"magenta": color.FgMagenta,
	"cyan":    color.FgCyan,
	"white":   color.FgWhite,
	"default": color.Reset,
}

// ParseColor understands rgba(r, g, b, a), rgb(r, g, b), #rrggbb and the
// eight basic colour names plus "default". An alpha of 0 yields the default
// colour; other alpha values are ignored since terminals cannot blend.
func ParseColor(spec string) (Color, error) {
	key := strings.TrimSpace(spec)

	colorMutex.RLock()
	if cached, ok := colorCache[key]; ok {
		colorMutex.RUnlock()
		return cached, nil
	}
	colorMutex.RUnlock()

	c, err := parseColor(key)
	if err != nil {
		return Color{}, err
	}

	colorMutex.Lock()
	colorCache[key] = c
	colorMutex.Unlock()
	return c, nil
}

func parseColor(spec string) (Color, error) {
	if m := hexRegex.FindStringSubmatch(spec); m != nil {
		r, _ := strconv.ParseUint(m[1], 16, 8)
		g, _ := strconv.ParseUint(m[2], 16, 8)
		b, _ := strconv.ParseUint(m[3], 16, 8)
		return Color{rgb: true, r: uint8(r), g: uint8(g), b: uint8(b)}, nil
	}

	if m := rgbaRegex.FindStringSubmatch(spec); m != nil {
		var channels [3]uint8
		for i := range channels {
			v, err := strconv.Atoi(m[i+1])
			if err != nil || v > 255 {
				return Color{}, fmt.Errorf("invalid color %q: channel %q out of range", spec, m[i+1])
			}
			channels[i] = uint8(v)
		}
		if m[4] != "" {
			alpha, err := strconv.ParseFloat(m[4], 64)
			if err != nil || alpha > 1 {
				return Color{}, fmt.Errorf("invalid color %q: alpha %q out of range", spec, m[4])
			}
			if alpha == 0 {
				return Color{}, nil
			}
		}
		return Color{rgb: true, r: channels[0], g: channels[1], b: channels[2]}, nil
	}

	if attr, ok := namedColors[strings.ToLower(spec)]; ok {
		return Color{named: true, attr: attr}, nil
	}
	return Color{}, fmt.Errorf("unknown color: %q", spec)
}

// fgAttrs and bgAttrs return the SGR parameters selecting c.
func (c Color) fgAttrs() []color.Attribute {
	switch {
	case c.rgb:
		return []color.Attribute{38, 2, color.Attribute(c.r), color.Attribute(c.g), color.Attribute(c.b)}
	case c.IsDefault():
		return nil
	default:
		return []color.Attribute{c.attr}
	}
}

func (c Color) bgAttrs() []color.Attribute {
	switch {
	case c.rgb:
		return []color.Attribute{48, 2, color.Attribute(c.r), color.Attribute(c.g), color.Attribute(c.b)}
	case c.IsDefault():
		return nil
	default:
		// BgX is FgX + 10 for every basic colour.
		return []color.Attribute{c.attr + 10}
	}
}

// Painter builds the fatih/color printer for a foreground and background.
func Painter(fg, bg Color) *color.Color {
	p := color.New(fg.fgAttrs()...)
	p.Add(bg.bgAttrs()...)
	return p
}

var tcellColors = map[color.Attribute]tcell.Color{
	color.FgBlack:   tcell.ColorBlack,
	color.FgRed:     tcell.ColorMaroon,
	color.FgGreen:   tcell.ColorGreen,
	color.FgYellow:  tcell.ColorOlive,
	color.FgBlue:    tcell.ColorNavy,
	color.FgMagenta: tcell.ColorPurple,
	color.FgCyan:    tcell.ColorTeal,
	color.FgWhite:   tcell.ColorSilver,
}

// Tcell converts c for the interactive viewer.
func (c Color) Tcell() tcell.Color {
	if c.rgb {
		return tcell.NewRGBColor(int32(c.r), int32(c.g), int32(c.b))
	}
	if tc, ok := tcellColors[c.attr]; ok && c.named {
		return tc
	}
	return tcell.ColorDefault
}
