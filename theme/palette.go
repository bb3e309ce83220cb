package theme

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

type RGB [3]uint8

type Palette struct {
	Name   string
	Colors []RGB
}

// Dusk is the built-in palette: night blue through candle gold, like the
// sky over the game's home island.
var Dusk = &Palette{
	Name: "Dusk",
	Colors: []RGB{
		{0x10, 0x14, 0x2b},
		{0x1f, 0x2a, 0x52},
		{0x3b, 0x4a, 0x7a},
		{0x6d, 0x7f, 0xb3},
		{0xa5, 0xb8, 0xe6},
		{0xe8, 0xa8, 0x7c},
		{0xf2, 0x8c, 0x5a},
		{0xe0, 0x5a, 0x4f},
		{0xf5, 0xc3, 0x4a},
		{0xff, 0xe9, 0x8a},
	},
}

// LoadGPL reads a GIMP palette file.
func LoadGPL(path string) (*Palette, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseGPL(bufio.NewScanner(f), path)
}

func parseGPL(scanner *bufio.Scanner, path string) (*Palette, error) {
	p := &Palette{}
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if strings.HasPrefix(line, "Name:") {
			p.Name = strings.TrimSpace(strings.TrimPrefix(line, "Name:"))
			continue
		}

		// Skip headers and comments
		if line == "" || line[0] == '#' || strings.HasPrefix(line, "GIMP") || strings.HasPrefix(line, "Columns") {
			continue
		}

		// first 3 fields are R G B, the rest is a colour name
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		var rgb RGB
		ok := true
		for i := 0; i < 3; i++ {
			v, err := strconv.Atoi(fields[i])
			if err != nil || v < 0 || v > 255 {
				ok = false
				break
			}
			rgb[i] = uint8(v)
		}
		if ok {
			p.Colors = append(p.Colors, rgb)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(p.Colors) == 0 {
		return nil, fmt.Errorf("no colors found in palette %s", path)
	}
	return p, nil
}

// LoadOrDefault loads path, falling back to Dusk when path is empty or
// unreadable.
func LoadOrDefault(path string) (*Palette, error) {
	if path == "" {
		return Dusk, nil
	}
	p, err := LoadGPL(path)
	if err != nil {
		return Dusk, err
	}
	return p, nil
}

// Lookup returns interpolated color for normalized value 0-1
func (p *Palette) Lookup(norm float64) RGB {
	if norm <= 0 || len(p.Colors) == 1 {
		return p.Colors[0]
	}
	if norm >= 1 {
		return p.Colors[len(p.Colors)-1]
	}

	pos := norm * float64(len(p.Colors)-1)
	i := int(pos)
	frac := pos - float64(i)

	c0 := p.Colors[i]
	c1 := p.Colors[i+1]

	return RGB{
		lerp(c0[0], c1[0], frac),
		lerp(c0[1], c1[1], frac),
		lerp(c0[2], c1[2], frac),
	}
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a)*(1-t) + float64(b)*t)
}
