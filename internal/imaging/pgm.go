package imaging

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"io"
	"strconv"
)

// PGM (portable graymap) is the raster format map_server writes occupancy
// grids in. Both the binary (P5) and plain (P2) variants are registered with
// the image package, so image.Decode and imaging.Open understand them.
func init() {
	image.RegisterFormat("pgm", "P5", DecodePGM, DecodePGMConfig)
	image.RegisterFormat("pgm", "P2", DecodePGM, DecodePGMConfig)
}

type pgmHeader struct {
	plain  bool
	width  int
	height int
	maxval int
}

// DecodePGM decodes a P5 or P2 graymap into an *image.Gray.
//
// Samples are rescaled to 0-255 when maxval differs from 255. 16-bit samples
// (maxval > 255) are read big-endian as the format requires.
func DecodePGM(r io.Reader) (image.Image, error) {
	br := bufio.NewReader(r)
	h, err := readPGMHeader(br)
	if err != nil {
		return nil, err
	}

	img := image.NewGray(image.Rect(0, 0, h.width, h.height))
	n := h.width * h.height

	switch {
	case h.plain:
		for i := 0; i < n; i++ {
			tok, err := readToken(br)
			if err != nil {
				return nil, fmt.Errorf("pgm: sample %d: %w", i, err)
			}
			v, err := strconv.Atoi(tok)
			if err != nil || v < 0 || v > h.maxval {
				return nil, fmt.Errorf("pgm: invalid sample %q", tok)
			}
			img.Pix[i] = scaleSample(v, h.maxval)
		}
	case h.maxval < 256:
		if _, err := io.ReadFull(br, img.Pix); err != nil {
			return nil, fmt.Errorf("pgm: short pixel data: %w", err)
		}
		if h.maxval != 255 {
			for i, v := range img.Pix {
				img.Pix[i] = scaleSample(int(v), h.maxval)
			}
		}
	default:
		buf := make([]byte, 2*n)
		if _, err := io.ReadFull(br, buf); err != nil {
			return nil, fmt.Errorf("pgm: short pixel data: %w", err)
		}
		for i := 0; i < n; i++ {
			v := int(buf[2*i])<<8 | int(buf[2*i+1])
			img.Pix[i] = scaleSample(v, h.maxval)
		}
	}

	return img, nil
}

// DecodePGMConfig returns the dimensions of a graymap without reading pixels.
func DecodePGMConfig(r io.Reader) (image.Config, error) {
	h, err := readPGMHeader(bufio.NewReader(r))
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{
		ColorModel: color.GrayModel,
		Width:      h.width,
		Height:     h.height,
	}, nil
}

// EncodePGM writes a raster as a binary (P5) graymap.
func EncodePGM(w io.Writer, r *Raster) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "P5\n%d %d\n255\n", r.Width, r.Height); err != nil {
		return err
	}
	if _, err := bw.Write(r.Pix); err != nil {
		return err
	}
	return bw.Flush()
}

func readPGMHeader(br *bufio.Reader) (*pgmHeader, error) {
	magic, err := readToken(br)
	if err != nil {
		return nil, fmt.Errorf("pgm: missing magic: %w", err)
	}

	h := &pgmHeader{}
	switch magic {
	case "P5":
	case "P2":
		h.plain = true
	default:
		return nil, fmt.Errorf("pgm: unsupported magic %q", magic)
	}

	fields := []*int{&h.width, &h.height, &h.maxval}
	names := []string{"width", "height", "maxval"}
	for i, f := range fields {
		tok, err := readToken(br)
		if err != nil {
			return nil, fmt.Errorf("pgm: missing %s: %w", names[i], err)
		}
		v, err := strconv.Atoi(tok)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("pgm: invalid %s %q", names[i], tok)
		}
		*f = v
	}
	if h.maxval > 65535 {
		return nil, fmt.Errorf("pgm: maxval %d out of range", h.maxval)
	}

	// exactly one whitespace byte separates the header from binary samples,
	// and readToken has already consumed it
	return h, nil
}

// readToken returns the next whitespace-delimited token, skipping '#'
// comments. It consumes the single whitespace byte that ends the token.
func readToken(br *bufio.Reader) (string, error) {
	var tok []byte
	for {
		b, err := br.ReadByte()
		if err != nil {
			if err == io.EOF && len(tok) > 0 {
				return string(tok), nil
			}
			if err == io.EOF {
				return "", io.ErrUnexpectedEOF
			}
			return "", err
		}
		switch {
		case b == '#' && len(tok) == 0:
			if _, err := br.ReadString('\n'); err != nil {
				return "", io.ErrUnexpectedEOF
			}
		case isSpace(b):
			if len(tok) > 0 {
				return string(tok), nil
			}
		default:
			tok = append(tok, b)
		}
	}
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\v' || b == '\f'
}

func scaleSample(v, maxval int) uint8 {
	if maxval == 255 {
		return uint8(v)
	}
	return uint8((v*255 + maxval/2) / maxval)
}
