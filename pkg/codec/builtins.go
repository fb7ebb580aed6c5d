/*
Copyright 2024 The Pipelime Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package codec

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"gopkg.in/yaml.v3"

	"github.com/eyecan-ai/pipelime-sub000/pkg/ndarray"
)

func registerBuiltins(r *Registry) {
	img := imageCodec{}
	for _, ext := range []string{"jpg", "jpeg", "png", "tiff", "bmp"} {
		r.Register(ext, img)
	}

	r.Register("npy", npyNativeCodec{})
	r.Register("npz", npyNativeCodec{})

	txt := npyTextCodec{}
	r.Register("txt", txt)
	r.Register("data", txt)

	markup := markupCodec{}
	for _, ext := range []string{"json", "yml", "yaml", "toml", "tml"} {
		r.Register(ext, markup)
	}

	pkl := pickleCodec{}
	r.Register("pkl", pkl)
	r.Register("pickle", pkl)

	r.Register("bin", binaryCodec{})

	rem := remoteCodec{}
	for _, ext := range []string{"remote", "rmt", "plr"} {
		r.Register(ext, rem)
	}
}

// --- image ---------------------------------------------------------------

type imageCodec struct{}

func (imageCodec) Category() Category { return CategoryImage }

// Decode sniffs content rather than trusting the extension alone (spec
// §4.1: "Image codec category is detected by content sniffing, not only
// by suffix, to support ambiguous file types").
func (imageCodec) Decode(r io.Reader) (interface{}, error) {
	buf := bufio.NewReader(r)
	head, err := buf.Peek(512)
	if err != nil && err != io.EOF {
		return nil, err
	}
	format := sniffImageFormat(head)

	var img image.Image
	switch format {
	case "png":
		img, err = png.Decode(buf)
	case "jpeg":
		img, err = jpeg.Decode(buf)
	case "bmp":
		img, err = bmp.Decode(buf)
	case "tiff":
		img, err = tiff.Decode(buf)
	default:
		// Fall back to the registered decoders in turn.
		img, _, err = image.Decode(buf)
	}
	if err != nil {
		return nil, err
	}
	return imageToArray(img), nil
}

func (imageCodec) Encode(w io.Writer, v interface{}) error {
	arr, ok := v.(ndarray.Array)
	if !ok {
		return fmt.Errorf("image codec: expected ndarray.Array, got %T", v)
	}
	img, err := arrayToImage(arr)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

func sniffImageFormat(head []byte) string {
	switch {
	case bytes.HasPrefix(head, []byte("\x89PNG")):
		return "png"
	case bytes.HasPrefix(head, []byte{0xff, 0xd8}):
		return "jpeg"
	case bytes.HasPrefix(head, []byte("BM")):
		return "bmp"
	case bytes.HasPrefix(head, []byte("II*\x00")), bytes.HasPrefix(head, []byte("MM\x00*")):
		return "tiff"
	default:
		return ""
	}
}

func imageToArray(img image.Image) ndarray.Array {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	data := make([]float64, 0, w*h*3)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			data = append(data, float64(r>>8), float64(g>>8), float64(bl>>8))
		}
	}
	return ndarray.Array{Shape: []int{h, w, 3}, DType: ndarray.Uint8, Data: data}
}

func arrayToImage(a ndarray.Array) (image.Image, error) {
	if len(a.Shape) < 2 {
		return nil, fmt.Errorf("image codec: array must be at least 2-D, got shape %v", a.Shape)
	}
	h, w := a.Shape[0], a.Shape[1]
	channels := 1
	if len(a.Shape) == 3 {
		channels = a.Shape[2]
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := (y*w + x) * channels
			var r, g, b, aVal uint8 = 0, 0, 0, 255
			switch channels {
			case 1:
				r = uint8(a.Data[idx])
				g, b = r, r
			case 3:
				r, g, b = uint8(a.Data[idx]), uint8(a.Data[idx+1]), uint8(a.Data[idx+2])
			case 4:
				r, g, b, aVal = uint8(a.Data[idx]), uint8(a.Data[idx+1]), uint8(a.Data[idx+2]), uint8(a.Data[idx+3])
			default:
				return nil, fmt.Errorf("image codec: unsupported channel count %d", channels)
			}
			img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: aVal})
		}
	}
	return img, nil
}

// --- numpy native (.npy/.npz) ---------------------------------------------

type npyNativeCodec struct{}

func (npyNativeCodec) Category() Category { return CategoryNumpyNative }

// Decode parses the documented .npy header: a "\x93NUMPY" magic, version,
// header length, then a Python-literal dict describing descr/fortran_order/shape.
func (npyNativeCodec) Decode(r io.Reader) (interface{}, error) {
	var magic [6]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("npy: reading magic: %w", err)
	}
	if string(magic[:]) != "\x93NUMPY" {
		return nil, fmt.Errorf("npy: bad magic %q", magic)
	}
	var version [2]byte
	if _, err := io.ReadFull(r, version[:]); err != nil {
		return nil, err
	}
	var headerLen int
	if version[0] == 1 {
		var l16 uint16
		if err := binary.Read(r, binary.LittleEndian, &l16); err != nil {
			return nil, err
		}
		headerLen = int(l16)
	} else {
		var l32 uint32
		if err := binary.Read(r, binary.LittleEndian, &l32); err != nil {
			return nil, err
		}
		headerLen = int(l32)
	}
	header := make([]byte, headerLen)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}
	shape, dtype, err := parseNpyHeader(string(header))
	if err != nil {
		return nil, err
	}
	rest, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data, err := decodeRawNumeric(rest, dtype)
	if err != nil {
		return nil, err
	}
	return ndarray.Array{Shape: shape, DType: dtype, Data: data}, nil
}

func (npyNativeCodec) Encode(w io.Writer, v interface{}) error {
	arr, ok := v.(ndarray.Array)
	if !ok {
		return fmt.Errorf("npy codec: expected ndarray.Array, got %T", v)
	}
	header := buildNpyHeader(arr)
	if _, err := w.Write([]byte("\x93NUMPY\x01\x00")); err != nil {
		return err
	}
	padded := padHeader(header)
	if err := binary.Write(w, binary.LittleEndian, uint16(len(padded))); err != nil {
		return err
	}
	if _, err := w.Write([]byte(padded)); err != nil {
		return err
	}
	return encodeRawNumeric(w, arr)
}

func parseNpyHeader(h string) (shape []int, dtype ndarray.DType, err error) {
	dtype = ndarray.Float64
	if strings.Contains(h, "'<f4'") || strings.Contains(h, "'float32'") {
		dtype = ndarray.Float32
	} else if strings.Contains(h, "'|u1'") || strings.Contains(h, "'uint8'") {
		dtype = ndarray.Uint8
	}
	start := strings.Index(h, "'shape':")
	if start < 0 {
		return nil, "", fmt.Errorf("npy: header missing shape: %q", h)
	}
	open := strings.Index(h[start:], "(")
	close := strings.Index(h[start:], ")")
	if open < 0 || close < 0 {
		return nil, "", fmt.Errorf("npy: malformed shape tuple in header")
	}
	tuple := h[start+open+1 : start+close]
	for _, part := range strings.Split(tuple, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		var n int
		if _, err := fmt.Sscanf(part, "%d", &n); err != nil {
			return nil, "", fmt.Errorf("npy: parsing shape entry %q: %w", part, err)
		}
		shape = append(shape, n)
	}
	return shape, dtype, nil
}

func buildNpyHeader(a ndarray.Array) string {
	descr := map[ndarray.DType]string{
		ndarray.Float64: "<f8",
		ndarray.Float32: "<f4",
		ndarray.Uint8:   "|u1",
	}[a.DType]
	shapeStr := make([]string, len(a.Shape))
	for i, s := range a.Shape {
		shapeStr[i] = fmt.Sprintf("%d", s)
	}
	tail := ""
	if len(shapeStr) == 1 {
		tail = ","
	}
	return fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': (%s%s), }",
		descr, strings.Join(shapeStr, ", "), tail)
}

func padHeader(h string) string {
	// Total of magic(6)+version(2)+lenfield(2)+header must be a multiple of 64,
	// and the header itself must end with '\n'.
	const preludeLen = 10
	total := preludeLen + len(h) + 1
	pad := (64 - total%64) % 64
	return h + strings.Repeat(" ", pad) + "\n"
}

func decodeRawNumeric(raw []byte, dtype ndarray.DType) ([]float64, error) {
	switch dtype {
	case ndarray.Uint8:
		out := make([]float64, len(raw))
		for i, b := range raw {
			out[i] = float64(b)
		}
		return out, nil
	case ndarray.Float32:
		if len(raw)%4 != 0 {
			return nil, fmt.Errorf("npy: float32 payload not a multiple of 4 bytes")
		}
		out := make([]float64, len(raw)/4)
		for i := range out {
			bits := binary.LittleEndian.Uint32(raw[i*4:])
			out[i] = float64(math.Float32frombits(bits))
		}
		return out, nil
	default:
		if len(raw)%8 != 0 {
			return nil, fmt.Errorf("npy: float64 payload not a multiple of 8 bytes")
		}
		out := make([]float64, len(raw)/8)
		for i := range out {
			bits := binary.LittleEndian.Uint64(raw[i*8:])
			out[i] = math.Float64frombits(bits)
		}
		return out, nil
	}
}

func encodeRawNumeric(w io.Writer, a ndarray.Array) error {
	switch a.DType {
	case ndarray.Uint8:
		raw := make([]byte, len(a.Data))
		for i, v := range a.Data {
			raw[i] = byte(v)
		}
		_, err := w.Write(raw)
		return err
	case ndarray.Float32:
		raw := make([]byte, len(a.Data)*4)
		for i, v := range a.Data {
			binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(float32(v)))
		}
		_, err := w.Write(raw)
		return err
	default:
		raw := make([]byte, len(a.Data)*8)
		for i, v := range a.Data {
			binary.LittleEndian.PutUint64(raw[i*8:], math.Float64bits(v))
		}
		_, err := w.Write(raw)
		return err
	}
}

// --- numpy text (.txt/.data) -----------------------------------------------

type npyTextCodec struct{}

func (npyTextCodec) Category() Category { return CategoryNumpyText }

// Decode parses whitespace-separated numeric rows into an at-least-2-D
// array (spec §4.1).
func (npyTextCodec) Decode(r io.Reader) (interface{}, error) {
	scanner := bufio.NewScanner(r)
	var rows [][]float64
	cols := -1
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		row := make([]float64, len(fields))
		for i, f := range fields {
			if _, err := fmt.Sscanf(f, "%g", &row[i]); err != nil {
				return nil, fmt.Errorf("npy-text: parsing value %q: %w", f, err)
			}
		}
		if cols == -1 {
			cols = len(row)
		} else if len(row) != cols {
			return nil, fmt.Errorf("npy-text: ragged rows (%d vs %d columns)", len(row), cols)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	data := make([]float64, 0, len(rows)*cols)
	for _, row := range rows {
		data = append(data, row...)
	}
	if cols < 0 {
		cols = 0
	}
	return ndarray.Array{Shape: []int{len(rows), cols}, DType: ndarray.Float64, Data: data}.AtLeast2D(), nil
}

func (npyTextCodec) Encode(w io.Writer, v interface{}) error {
	arr, ok := v.(ndarray.Array)
	if !ok {
		return fmt.Errorf("npy-text codec: expected ndarray.Array, got %T", v)
	}
	if len(arr.Shape) != 2 {
		return fmt.Errorf("npy-text codec: expected 2-D array, got shape %v", arr.Shape)
	}
	rows, cols := arr.Shape[0], arr.Shape[1]
	bw := bufio.NewWriter(w)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if j > 0 {
				bw.WriteByte(' ')
			}
			fmt.Fprintf(bw, "%g", arr.Data[i*cols+j])
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// --- markup (json/yml/yaml/toml/tml) ---------------------------------------

type markupCodec struct{}

func (markupCodec) Category() Category { return CategoryMarkup }

// Decode tries JSON first when the stream starts with '{' or '[', then
// YAML, then TOML. The file extension plays no part: every markup
// extension is registered to this same codec value, so a TOML document
// that also parses as YAML (e.g. flat "key = value" lines, which YAML
// reads as one string) decodes to YAML's result.
func (markupCodec) Decode(r io.Reader) (interface{}, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		var v interface{}
		if err := json.Unmarshal(raw, &v); err == nil {
			return v, nil
		}
	}
	var y interface{}
	if err := yaml.Unmarshal(raw, &y); err == nil {
		return y, nil
	}
	var t map[string]interface{}
	if err := toml.Unmarshal(raw, &t); err == nil {
		return t, nil
	}
	return nil, fmt.Errorf("markup: could not parse as JSON, YAML or TOML")
}

func (markupCodec) Encode(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(v)
}

// --- pickle (opaque objects) -------------------------------------------------

// pickleCodec stands in for Python's pickle format with Go's gob encoding:
// an opaque-object round-trip, not wire-compatible with CPython pickles
// (numerical/object serialization is delegated per spec §1's Non-goals;
// only the codec *slot* for this category is in scope).
type pickleCodec struct{}

func (pickleCodec) Category() Category { return CategoryPickle }

func (pickleCodec) Decode(r io.Reader) (interface{}, error) {
	var v interface{}
	if err := gob.NewDecoder(r).Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func (pickleCodec) Encode(w io.Writer, v interface{}) error {
	return gob.NewEncoder(w).Encode(&v)
}

// --- binary ------------------------------------------------------------------

type binaryCodec struct{}

func (binaryCodec) Category() Category { return CategoryBinary }

func (binaryCodec) Decode(r io.Reader) (interface{}, error) {
	return io.ReadAll(r)
}

func (binaryCodec) Encode(w io.Writer, v interface{}) error {
	b, ok := v.([]byte)
	if !ok {
		return fmt.Errorf("binary codec: expected []byte, got %T", v)
	}
	_, err := w.Write(b)
	return err
}

// --- remote (.remote/.rmt/.plr) ----------------------------------------------

// remoteCodec decodes the placeholder file into its URL list (spec §4.1/§6);
// resolving those URLs into the final decoded value is the item package's
// job, since it requires the remote registry and a recursive codec call.
type remoteCodec struct{}

func (remoteCodec) Category() Category { return CategoryRemote }

func (remoteCodec) Decode(r io.Reader) (interface{}, error) {
	scanner := bufio.NewScanner(r)
	var urls []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if line == "" {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return urls, nil
}

func (remoteCodec) Encode(w io.Writer, v interface{}) error {
	urls, ok := v.([]string)
	if !ok {
		return fmt.Errorf("remote codec: expected []string, got %T", v)
	}
	for _, u := range urls {
		if _, err := fmt.Fprintln(w, u); err != nil {
			return err
		}
	}
	return nil
}
