package loader

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
)

// Common errors returned by the parser
var (
	errInvalidGLTFVersion   = errors.New("invalid glTF version: must be 2.x")
	errInvalidGLBMagic      = errors.New("invalid GLB magic number")
	errInvalidGLBVersion    = errors.New("invalid GLB version: must be 2")
	errTruncatedGLB         = errors.New("GLB data truncated")
	errMissingJSONChunk     = errors.New("GLB file missing JSON chunk")
	errInvalidBufferURI     = errors.New("invalid buffer URI")
	errExternalURI          = errors.New("external URIs are not supported in a GLB container")
	errBufferSizeMismatch   = errors.New("buffer size mismatch")
	errAccessorOutOfBounds  = errors.New("accessor reads past the end of its buffer view")
	errUnsupportedExtension = errors.New("unsupported required extension")
)

// supportedExtensions are the required extensions the importer can honor.
var supportedExtensions = []string{
	gltfExtTextureWebP,
	"KHR_mesh_quantization",
	"KHR_materials_unlit",
}

// gltfParserImpl is the implementation of the gltfParser interface.
type gltfParserImpl struct {
	document       *gltfDocument
	glbBinaryChunk []byte
}

// gltfParser defines the interface for parsing GLB containers and reading typed accessor data.
// This is internal to the loader package.
type gltfParser interface {
	// ParseGLB parses a complete GLB container held in memory.
	//
	// Parameters:
	//   - data: the GLB bytes
	//
	// Returns:
	//   - error: error if the container or its JSON document is malformed
	ParseGLB(data []byte) error

	// Document returns the parsed glTF document.
	// Returns nil if ParseGLB has not been called successfully.
	//
	// Returns:
	//   - *gltfDocument: the parsed document or nil
	Document() *gltfDocument

	// BufferViewData returns the bytes covered by a buffer view.
	//
	// Parameters:
	//   - viewIndex: the index of the buffer view
	//
	// Returns:
	//   - []byte: a sub-slice of the underlying buffer
	//   - error: error if the view is out of range
	BufferViewData(viewIndex int) ([]byte, error)

	// ReadFloatAccessor reads an accessor as tightly packed float32 components. Integer
	// component types are converted, honoring the accessor's normalized flag.
	//
	// Parameters:
	//   - accessorIndex: the index of the accessor
	//   - accessorType: the expected accessor type (VEC2, VEC3, ...)
	//
	// Returns:
	//   - []float32: count * components values
	//   - error: error if the accessor is missing, mistyped or out of bounds
	ReadFloatAccessor(accessorIndex int, accessorType string) ([]float32, error)

	// ReadVec2Accessor reads an accessor as vec2 data.
	ReadVec2Accessor(accessorIndex int) ([][2]float32, error)

	// ReadVec3Accessor reads an accessor as vec3 data.
	ReadVec3Accessor(accessorIndex int) ([][3]float32, error)

	// ReadVec4Accessor reads an accessor as vec4 data.
	ReadVec4Accessor(accessorIndex int) ([][4]float32, error)

	// ReadIndicesAccessor reads an accessor as index data (uint32).
	// Handles UNSIGNED_BYTE, UNSIGNED_SHORT, and UNSIGNED_INT component types.
	//
	// Parameters:
	//   - accessorIndex: the index of the accessor
	//
	// Returns:
	//   - []uint32: the index data (converted to uint32)
	//   - error: error if reading fails
	ReadIndicesAccessor(accessorIndex int) ([]uint32, error)
}

var _ gltfParser = &gltfParserImpl{}

// newGLTFParser creates a new glTF parser instance.
//
// Returns:
//   - gltfParser: a new parser instance
func newGLTFParser() gltfParser {
	return &gltfParserImpl{}
}

func (p *gltfParserImpl) Document() *gltfDocument {
	return p.document
}

// ParseGLB parses a GLB binary container.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#glb-file-format-specification
func (p *gltfParserImpl) ParseGLB(data []byte) error {
	if len(data) < 12 {
		return fmt.Errorf("%w: %d bytes", errTruncatedGLB, len(data))
	}

	header := gltfGLBHeader{
		Magic:   binary.LittleEndian.Uint32(data[0:4]),
		Version: binary.LittleEndian.Uint32(data[4:8]),
		Length:  binary.LittleEndian.Uint32(data[8:12]),
	}
	if header.Magic != gltfGLBMagic {
		return errInvalidGLBMagic
	}
	if header.Version != gltfGLBVersion {
		return errInvalidGLBVersion
	}
	if int(header.Length) > len(data) {
		return fmt.Errorf("%w: header declares %d bytes, have %d", errTruncatedGLB, header.Length, len(data))
	}
	data = data[:header.Length]

	var jsonData, binData []byte
	offset := 12
	for offset < len(data) {
		if len(data)-offset < 8 {
			return fmt.Errorf("%w: incomplete chunk header at %d", errTruncatedGLB, offset)
		}
		chunk := gltfGLBChunkHeader{
			ChunkLength: binary.LittleEndian.Uint32(data[offset : offset+4]),
			ChunkType:   binary.LittleEndian.Uint32(data[offset+4 : offset+8]),
		}
		offset += 8
		end := offset + int(chunk.ChunkLength)
		if end > len(data) || end < offset {
			return fmt.Errorf("%w: chunk of %d bytes at %d", errTruncatedGLB, chunk.ChunkLength, offset)
		}

		switch chunk.ChunkType {
		case gltfGLBChunkJSON:
			if jsonData == nil {
				jsonData = data[offset:end]
			}
		case gltfGLBChunkBIN:
			if binData == nil {
				binData = data[offset:end]
			}
		}
		offset = end
	}

	if jsonData == nil {
		return errMissingJSONChunk
	}
	p.glbBinaryChunk = binData

	var doc gltfDocument
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return fmt.Errorf("failed to parse glTF JSON: %w", err)
	}
	if !strings.HasPrefix(doc.Asset.Version, "2.") {
		return errInvalidGLTFVersion
	}
	for _, ext := range doc.ExtensionsRequired {
		if !slices.Contains(supportedExtensions, ext) {
			return fmt.Errorf("%w: %s", errUnsupportedExtension, ext)
		}
	}

	if err := p.loadBuffers(&doc); err != nil {
		return fmt.Errorf("failed to load buffers: %w", err)
	}

	p.document = &doc
	return nil
}

// loadBuffers binds every buffer to the BIN chunk or an embedded data URI.
func (p *gltfParserImpl) loadBuffers(doc *gltfDocument) error {
	for i := range doc.Buffers {
		buf := &doc.Buffers[i]

		switch {
		case buf.URI == "" && i == 0 && p.glbBinaryChunk != nil:
			buf.Data = p.glbBinaryChunk
		case buf.URI == "":
			return fmt.Errorf("buffer %d has no URI and no GLB binary chunk", i)
		case strings.HasPrefix(buf.URI, "data:"):
			data, err := decodeDataURI(buf.URI)
			if err != nil {
				return fmt.Errorf("buffer %d: %w", i, err)
			}
			buf.Data = data
		default:
			return fmt.Errorf("buffer %d (%q): %w", i, buf.URI, errExternalURI)
		}

		if len(buf.Data) < buf.ByteLength {
			return fmt.Errorf("buffer %d: %w (declared %d, have %d)", i, errBufferSizeMismatch, buf.ByteLength, len(buf.Data))
		}
	}

	return nil
}

// decodeDataURI decodes a base64 data URI.
// Format: data:[<mediatype>][;base64],<data>
func decodeDataURI(uri string) ([]byte, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, errInvalidBufferURI
	}
	if !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("%w: unsupported encoding %q", errInvalidBufferURI, header)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}
	return data, nil
}

func (p *gltfParserImpl) BufferViewData(viewIndex int) ([]byte, error) {
	if p.document == nil {
		return nil, errors.New("no document loaded")
	}
	if viewIndex < 0 || viewIndex >= len(p.document.BufferViews) {
		return nil, fmt.Errorf("buffer view index %d out of range", viewIndex)
	}
	bv := &p.document.BufferViews[viewIndex]
	if bv.Buffer < 0 || bv.Buffer >= len(p.document.Buffers) {
		return nil, fmt.Errorf("buffer view %d references missing buffer %d", viewIndex, bv.Buffer)
	}
	data := p.document.Buffers[bv.Buffer].Data
	end := bv.ByteOffset + bv.ByteLength
	if bv.ByteOffset < 0 || bv.ByteLength < 0 || end > len(data) {
		return nil, fmt.Errorf("buffer view %d: %w", viewIndex, errBufferSizeMismatch)
	}
	return data[bv.ByteOffset:end], nil
}

// accessorElements validates an accessor and returns its view bytes, element size and stride.
func (p *gltfParserImpl) accessorElements(accessorIndex int) (*gltfAccessor, []byte, int, int, error) {
	if p.document == nil {
		return nil, nil, 0, 0, errors.New("no document loaded")
	}
	if accessorIndex < 0 || accessorIndex >= len(p.document.Accessors) {
		return nil, nil, 0, 0, fmt.Errorf("accessor index %d out of range", accessorIndex)
	}
	acc := &p.document.Accessors[accessorIndex]
	if acc.BufferView == nil {
		return nil, nil, 0, 0, fmt.Errorf("accessor %d has no bufferView", accessorIndex)
	}

	view, err := p.BufferViewData(*acc.BufferView)
	if err != nil {
		return nil, nil, 0, 0, fmt.Errorf("accessor %d: %w", accessorIndex, err)
	}

	componentSize := gltfComponentTypeSize(acc.ComponentType)
	componentCount := gltfAccessorTypeComponentCount(acc.Type)
	if componentSize == 0 || componentCount == 0 {
		return nil, nil, 0, 0, fmt.Errorf("accessor %d has unsupported layout %s/%d", accessorIndex, acc.Type, acc.ComponentType)
	}
	elementSize := componentSize * componentCount

	stride := elementSize
	if bv := p.document.BufferViews[*acc.BufferView]; bv.ByteStride != nil && *bv.ByteStride > 0 {
		stride = *bv.ByteStride
	}

	if acc.Count < 0 || acc.ByteOffset < 0 {
		return nil, nil, 0, 0, fmt.Errorf("accessor %d: %w", accessorIndex, errAccessorOutOfBounds)
	}
	if acc.Count > 0 {
		last := acc.ByteOffset + (acc.Count-1)*stride + elementSize
		if last > len(view) {
			return nil, nil, 0, 0, fmt.Errorf("accessor %d: %w", accessorIndex, errAccessorOutOfBounds)
		}
	}

	return acc, view[acc.ByteOffset:], elementSize, stride, nil
}

func (p *gltfParserImpl) ReadFloatAccessor(accessorIndex int, accessorType string) ([]float32, error) {
	acc, data, _, stride, err := p.accessorElements(accessorIndex)
	if err != nil {
		return nil, err
	}
	if acc.Type != accessorType {
		return nil, fmt.Errorf("accessor %d is %s, expected %s", accessorIndex, acc.Type, accessorType)
	}

	components := gltfAccessorTypeComponentCount(acc.Type)
	componentSize := gltfComponentTypeSize(acc.ComponentType)
	result := make([]float32, acc.Count*components)

	for i := 0; i < acc.Count; i++ {
		base := i * stride
		for c := 0; c < components; c++ {
			at := base + c*componentSize
			result[i*components+c] = readComponent(data[at:at+componentSize], acc.ComponentType, acc.Normalized)
		}
	}

	return result, nil
}

// readComponent converts one component to float32. Normalized integers map to [0,1] or [-1,1].
func readComponent(b []byte, componentType int, normalized bool) float32 {
	switch componentType {
	case gltfComponentTypeFloat:
		return math.Float32frombits(binary.LittleEndian.Uint32(b))
	case gltfComponentTypeUnsignedByte:
		if normalized {
			return float32(b[0]) / 255
		}
		return float32(b[0])
	case gltfComponentTypeByte:
		v := float32(int8(b[0]))
		if normalized {
			return max(v/127, -1)
		}
		return v
	case gltfComponentTypeUnsignedShort:
		v := float32(binary.LittleEndian.Uint16(b))
		if normalized {
			return v / 65535
		}
		return v
	case gltfComponentTypeShort:
		v := float32(int16(binary.LittleEndian.Uint16(b)))
		if normalized {
			return max(v/32767, -1)
		}
		return v
	case gltfComponentTypeUnsignedInt:
		return float32(binary.LittleEndian.Uint32(b))
	}
	return 0
}

func (p *gltfParserImpl) ReadVec2Accessor(accessorIndex int) ([][2]float32, error) {
	flat, err := p.ReadFloatAccessor(accessorIndex, gltfAccessorTypeVec2)
	if err != nil {
		return nil, err
	}
	result := make([][2]float32, len(flat)/2)
	for i := range result {
		result[i] = [2]float32{flat[i*2], flat[i*2+1]}
	}
	return result, nil
}

func (p *gltfParserImpl) ReadVec3Accessor(accessorIndex int) ([][3]float32, error) {
	flat, err := p.ReadFloatAccessor(accessorIndex, gltfAccessorTypeVec3)
	if err != nil {
		return nil, err
	}
	result := make([][3]float32, len(flat)/3)
	for i := range result {
		result[i] = [3]float32{flat[i*3], flat[i*3+1], flat[i*3+2]}
	}
	return result, nil
}

func (p *gltfParserImpl) ReadVec4Accessor(accessorIndex int) ([][4]float32, error) {
	flat, err := p.ReadFloatAccessor(accessorIndex, gltfAccessorTypeVec4)
	if err != nil {
		return nil, err
	}
	result := make([][4]float32, len(flat)/4)
	for i := range result {
		result[i] = [4]float32{flat[i*4], flat[i*4+1], flat[i*4+2], flat[i*4+3]}
	}
	return result, nil
}

func (p *gltfParserImpl) ReadIndicesAccessor(accessorIndex int) ([]uint32, error) {
	acc, data, elementSize, stride, err := p.accessorElements(accessorIndex)
	if err != nil {
		return nil, err
	}
	if acc.Type != gltfAccessorTypeScalar {
		return nil, fmt.Errorf("index accessor is not SCALAR: type=%s", acc.Type)
	}

	result := make([]uint32, acc.Count)
	for i := 0; i < acc.Count; i++ {
		b := data[i*stride : i*stride+elementSize]
		switch acc.ComponentType {
		case gltfComponentTypeUnsignedByte:
			result[i] = uint32(b[0])
		case gltfComponentTypeUnsignedShort:
			result[i] = uint32(binary.LittleEndian.Uint16(b))
		case gltfComponentTypeUnsignedInt:
			result[i] = binary.LittleEndian.Uint32(b)
		default:
			return nil, fmt.Errorf("unsupported index component type: %d", acc.ComponentType)
		}
	}

	return result, nil
}

// gltfComponentTypeSize returns the byte size of a component type.
func gltfComponentTypeSize(componentType int) int {
	switch componentType {
	case gltfComponentTypeByte, gltfComponentTypeUnsignedByte:
		return 1
	case gltfComponentTypeShort, gltfComponentTypeUnsignedShort:
		return 2
	case gltfComponentTypeUnsignedInt, gltfComponentTypeFloat:
		return 4
	default:
		return 0
	}
}

// gltfAccessorTypeComponentCount returns the number of components for an accessor type.
func gltfAccessorTypeComponentCount(accessorType string) int {
	switch accessorType {
	case gltfAccessorTypeScalar:
		return 1
	case gltfAccessorTypeVec2:
		return 2
	case gltfAccessorTypeVec3:
		return 3
	case gltfAccessorTypeVec4, "MAT2":
		return 4
	case "MAT3":
		return 9
	case gltfAccessorTypeMat4:
		return 16
	default:
		return 0
	}
}
