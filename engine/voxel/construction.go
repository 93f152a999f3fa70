package voxel

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/Tnze/go-mc/nbt"
	"github.com/memmaker/voxeloctree/engine/util"
	"github.com/pkg/errors"
)

const constructionMagic = "constrct"

// NBT tag ids used by blocks_array_type.
const (
	byteArrayBlocks = 7
	intArrayBlocks  = 11
)

// sectionIndexSize is the byte size of one section_index_table row: IIIBBBII.
const sectionIndexSize = 23

/*
	TAG_Compound({
	    "block_entities": TAG_List([
	        TAG_Compound({
	            "namespace": TAG_String(),
	            "base_name": TAG_String(),
	            "x": TAG_Int(),
	            "y": TAG_Int(),
	            "z": TAG_Int(),
	            "nbt": TAG_Compound()
	        })
	        ...
	    ]),
	    "blocks_array_type": TAG_Byte(),
	    "blocks": TAG_Byte_Array() or TAG_Int_Array()
	})
*/
type sectionBlockInfo struct {
	BlocksArrayType byte `nbt:"blocks_array_type"`
}
type byteSectionOut struct {
	BlockEntities   []BlockEntity `nbt:"block_entities"`
	BlocksArrayType byte          `nbt:"blocks_array_type"`
	Blocks          []byte        `nbt:"blocks"`
}
type intSectionOut struct {
	BlockEntities   []BlockEntity `nbt:"block_entities"`
	BlocksArrayType byte          `nbt:"blocks_array_type"`
	Blocks          []int32       `nbt:"blocks"`
}
type byteSection struct {
	BlockEntities []BlockEntity `nbt:"block_entities"`
	Blocks        []byte        `nbt:"blocks"`
}
type intSection struct {
	BlockEntities []BlockEntity `nbt:"block_entities"`
	Blocks        []int32       `nbt:"blocks"`
}

type BlockEntity struct {
	Namespace string `nbt:"namespace"`
	Name      string `nbt:"base_name"`
	X         int32  `nbt:"x"`
	Y         int32  `nbt:"y"`
	Z         int32  `nbt:"z"`
}

type ConstructionMetadata struct {
	SelectionBoxes    []int32 `nbt:"selection_boxes"`
	SectionIndexTable []byte  `nbt:"section_index_table"`
	SectionVersion    byte    `nbt:"section_version"`
	ExportVersion     struct {
		Edition string  `nbt:"edition"`
		Version []int32 `nbt:"version"`
	} `nbt:"export_version"`
	BlockPalette []*BlockDefinition `nbt:"block_palette"`
	CreatedWith  string             `nbt:"created_with"`
}

type BlockDefinition struct {
	Name       string         `nbt:"blockname"`
	NameSpace  string         `nbt:"namespace"`
	Properties map[string]any `nbt:"properties"`
}

// IsAir reports whether the block is empty space. Missing blocks count as air.
func (b *BlockDefinition) IsAir() bool {
	return b == nil || b.Name == "air" || b.Name == "cave_air" || b.Name == "void_air"
}

type Construction struct {
	Metadata ConstructionMetadata
	Sections []*ConstructionSection
}

// ConstructionSection holds ShapeX*ShapeY*ShapeZ blocks, x major and z minor.
type ConstructionSection struct {
	Blocks        []*BlockDefinition
	ShapeX        uint8
	ShapeY        uint8
	ShapeZ        uint8
	MinBlockX     int32
	MinBlockY     int32
	MinBlockZ     int32
	BlockEntities []BlockEntity
}

// BlockAt returns the block at an offset inside the section.
func (s *ConstructionSection) BlockAt(x, y, z int) *BlockDefinition {
	index := (x*int(s.ShapeY)+y)*int(s.ShapeZ) + z
	if index < 0 || index >= len(s.Blocks) {
		return nil
	}
	return s.Blocks[index]
}

/*
The section_index_table is an Mx23 TAG_Byte_Array where M is the number of section data entries present in the construction file.

Each row is IIIBBBII, little endian:

III: The X, Y, and Z block coordinates of the minimum point of the section
BBB: The shape of the section in blocks in X, Y, Z order
I: The starting byte of the section data entry in the file
I: The byte length of the section data entry
*/
type SectionIndex struct {
	MinBlockX int32
	MinBlockY int32
	MinBlockZ int32
	ShapeX    uint8
	ShapeY    uint8
	ShapeZ    uint8
	Offset    uint32
	Size      uint32
}

func LoadConstruction(filename string) (*Construction, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "opening construction")
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "reading construction size")
	}
	construction, err := ReadConstruction(file, info.Size())
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", filename)
	}
	util.LogVoxelInfo(fmt.Sprintf("loaded %s: %d sections, %d palette entries", filename, len(construction.Sections), len(construction.Metadata.BlockPalette)))
	return construction, nil
}

// ReadConstruction decodes a construction file of the given size.
//
// Layout: magic, section data, gzipped metadata, int32 big endian metadata
// offset, magic.
func ReadConstruction(r io.ReaderAt, size int64) (*Construction, error) {
	trailerSize := int64(len(constructionMagic) + 4)
	if size < int64(len(constructionMagic))+trailerSize {
		return nil, errors.Errorf("file too short: %d bytes", size)
	}
	var magic [len(constructionMagic)]byte
	if _, err := r.ReadAt(magic[:], 0); err != nil {
		return nil, errors.Wrap(err, "reading magic number")
	}
	if string(magic[:]) != constructionMagic {
		return nil, errors.Errorf("invalid magic number %q", magic[:])
	}

	var trailer [4 + len(constructionMagic)]byte
	if _, err := r.ReadAt(trailer[:], size-trailerSize); err != nil {
		return nil, errors.Wrap(err, "reading trailer")
	}
	if string(trailer[4:]) != constructionMagic {
		return nil, errors.Errorf("invalid trailing magic number %q", trailer[4:])
	}
	metadataOffset := int64(int32(binary.BigEndian.Uint32(trailer[:4])))
	if metadataOffset < int64(len(constructionMagic)) || metadataOffset >= size-trailerSize {
		return nil, errors.Errorf("metadata offset %d out of range", metadataOffset)
	}

	var metadata ConstructionMetadata
	metadataReader := io.NewSectionReader(r, metadataOffset, size-trailerSize-metadataOffset)
	if err := decodeGzipNBT(metadataReader, &metadata); err != nil {
		return nil, errors.Wrap(err, "decoding metadata")
	}

	sectionTable, err := decodeSectionTable(metadata.SectionIndexTable)
	if err != nil {
		return nil, err
	}
	sections := make([]*ConstructionSection, len(sectionTable))
	for sIndex, index := range sectionTable {
		if int64(index.Offset)+int64(index.Size) > size {
			return nil, errors.Errorf("section %d exceeds file size", sIndex)
		}
		data := make([]byte, index.Size)
		if _, err = r.ReadAt(data, int64(index.Offset)); err != nil {
			return nil, errors.Wrapf(err, "reading section %d", sIndex)
		}
		sections[sIndex], err = decodeSection(data, index, metadata.BlockPalette)
		if err != nil {
			return nil, errors.Wrapf(err, "section %d", sIndex)
		}
	}
	return &Construction{Metadata: metadata, Sections: sections}, nil
}

func decodeGzipNBT(r io.Reader, v any) error {
	gzipReader, err := gzip.NewReader(r)
	if err != nil {
		return err
	}
	defer gzipReader.Close()
	_, err = nbt.NewDecoder(gzipReader).Decode(v)
	return err
}

// decodeSection reads the block array type first and then decodes the
// section again with the matching array type.
func decodeSection(data []byte, index SectionIndex, palette []*BlockDefinition) (*ConstructionSection, error) {
	var info sectionBlockInfo
	if err := decodeGzipNBT(bytes.NewReader(data), &info); err != nil {
		return nil, err
	}
	section := &ConstructionSection{
		ShapeX:    index.ShapeX,
		ShapeY:    index.ShapeY,
		ShapeZ:    index.ShapeZ,
		MinBlockX: index.MinBlockX,
		MinBlockY: index.MinBlockY,
		MinBlockZ: index.MinBlockZ,
	}
	var err error
	switch info.BlocksArrayType {
	case byteArrayBlocks:
		var decoded byteSection
		if err = decodeGzipNBT(bytes.NewReader(data), &decoded); err != nil {
			return nil, err
		}
		section.BlockEntities = decoded.BlockEntities
		section.Blocks, err = decodeBlocks(decoded.Blocks, palette)
	case intArrayBlocks:
		var decoded intSection
		if err = decodeGzipNBT(bytes.NewReader(data), &decoded); err != nil {
			return nil, err
		}
		section.BlockEntities = decoded.BlockEntities
		section.Blocks, err = decodeBlocks(decoded.Blocks, palette)
	default:
		return nil, errors.Errorf("unsupported blocks_array_type %d", info.BlocksArrayType)
	}
	if err != nil {
		return nil, err
	}
	total := int(index.ShapeX) * int(index.ShapeY) * int(index.ShapeZ)
	if len(section.Blocks) != 0 && len(section.Blocks) != total {
		return nil, errors.Errorf("got %d blocks for shape %dx%dx%d", len(section.Blocks), index.ShapeX, index.ShapeY, index.ShapeZ)
	}
	util.LogVoxelDebug(fmt.Sprintf("section at %d/%d/%d: %dx%dx%d blocks, %d block entities",
		index.MinBlockX, index.MinBlockY, index.MinBlockZ, index.ShapeX, index.ShapeY, index.ShapeZ, len(section.BlockEntities)))
	return section, nil
}

func decodeBlocks[T int32 | byte](blocks []T, palette []*BlockDefinition) ([]*BlockDefinition, error) {
	result := make([]*BlockDefinition, len(blocks))
	for i, block := range blocks {
		if int(block) < 0 || int(block) >= len(palette) {
			return nil, errors.Errorf("block %d refers to palette entry %d of %d", i, block, len(palette))
		}
		result[i] = palette[block]
	}
	return result, nil
}

func decodeSectionTable(table []byte) ([]SectionIndex, error) {
	if len(table)%sectionIndexSize != 0 {
		return nil, errors.Errorf("section index table length %d is not a multiple of %d", len(table), sectionIndexSize)
	}
	sectionCount := len(table) / sectionIndexSize
	sections := make([]SectionIndex, sectionCount)
	for i := range sections {
		row := table[i*sectionIndexSize : (i+1)*sectionIndexSize]
		sections[i].MinBlockX = int32(binary.LittleEndian.Uint32(row[0:4]))
		sections[i].MinBlockY = int32(binary.LittleEndian.Uint32(row[4:8]))
		sections[i].MinBlockZ = int32(binary.LittleEndian.Uint32(row[8:12]))
		sections[i].ShapeX = row[12]
		sections[i].ShapeY = row[13]
		sections[i].ShapeZ = row[14]
		sections[i].Offset = binary.LittleEndian.Uint32(row[15:19])
		sections[i].Size = binary.LittleEndian.Uint32(row[19:23])
	}
	return sections, nil
}

func encodeSectionTable(sections []SectionIndex) []byte {
	table := make([]byte, len(sections)*sectionIndexSize)
	for i, s := range sections {
		row := table[i*sectionIndexSize : (i+1)*sectionIndexSize]
		binary.LittleEndian.PutUint32(row[0:4], uint32(s.MinBlockX))
		binary.LittleEndian.PutUint32(row[4:8], uint32(s.MinBlockY))
		binary.LittleEndian.PutUint32(row[8:12], uint32(s.MinBlockZ))
		row[12], row[13], row[14] = s.ShapeX, s.ShapeY, s.ShapeZ
		binary.LittleEndian.PutUint32(row[15:19], s.Offset)
		binary.LittleEndian.PutUint32(row[19:23], s.Size)
	}
	return table
}

// WriteConstruction encodes c in the layout ReadConstruction expects. The
// palette is rebuilt from the blocks of all sections, nil blocks become air.
func WriteConstruction(w io.Writer, c *Construction) error {
	var buf bytes.Buffer
	buf.WriteString(constructionMagic)
	buf.WriteByte(0) // format version

	metadata := c.Metadata
	metadata.BlockPalette = nil
	paletteIndex := make(map[string]int32)
	lookup := func(block *BlockDefinition) int32 {
		if block == nil {
			block = &BlockDefinition{Name: "air", NameSpace: "minecraft"}
		}
		key := block.NameSpace + ":" + block.Name
		if index, ok := paletteIndex[key]; ok {
			return index
		}
		index := int32(len(metadata.BlockPalette))
		paletteIndex[key] = index
		metadata.BlockPalette = append(metadata.BlockPalette, block)
		return index
	}

	table := make([]SectionIndex, len(c.Sections))
	for i, section := range c.Sections {
		indices := make([]int32, len(section.Blocks))
		for b, block := range section.Blocks {
			indices[b] = lookup(block)
		}
		table[i] = SectionIndex{
			MinBlockX: section.MinBlockX,
			MinBlockY: section.MinBlockY,
			MinBlockZ: section.MinBlockZ,
			ShapeX:    section.ShapeX,
			ShapeY:    section.ShapeY,
			ShapeZ:    section.ShapeZ,
			Offset:    uint32(buf.Len()),
		}
		var payload any
		if len(metadata.BlockPalette) <= 256 {
			blocks := make([]byte, len(indices))
			for b, index := range indices {
				blocks[b] = byte(index)
			}
			payload = byteSectionOut{BlockEntities: section.BlockEntities, BlocksArrayType: byteArrayBlocks, Blocks: blocks}
		} else {
			payload = intSectionOut{BlockEntities: section.BlockEntities, BlocksArrayType: intArrayBlocks, Blocks: indices}
		}
		if err := encodeGzipNBT(&buf, payload); err != nil {
			return errors.Wrapf(err, "encoding section %d", i)
		}
		table[i].Size = uint32(buf.Len()) - table[i].Offset
	}
	metadata.SectionIndexTable = encodeSectionTable(table)

	metadataOffset := int32(buf.Len())
	if err := encodeGzipNBT(&buf, metadata); err != nil {
		return errors.Wrap(err, "encoding metadata")
	}
	if err := binary.Write(&buf, binary.BigEndian, metadataOffset); err != nil {
		return err
	}
	buf.WriteString(constructionMagic)
	_, err := w.Write(buf.Bytes())
	return errors.Wrap(err, "writing construction")
}

func encodeGzipNBT(w io.Writer, v any) error {
	gzipWriter := gzip.NewWriter(w)
	if err := nbt.NewEncoder(gzipWriter).Encode(v, ""); err != nil {
		return err
	}
	return gzipWriter.Close()
}
