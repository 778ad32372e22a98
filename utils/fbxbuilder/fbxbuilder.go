// Package fbxbuilder assembles binary fbx 7.4 documents holding bone
// hierarchies.
package fbxbuilder

import (
	"io"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/mogaika/fbx"
	"github.com/mogaika/fbx/builders/bfbx73"
	"github.com/pkg/errors"
)

const (
	fbxVersion  = 7400
	creator     = "overgrowth_browser"
	vendor      = "Overgrowth Modding Community"
	appVersion  = "1.0"
	epochGMT    = "01/01/1970 00:00:00.000"
	epochLocal  = "1970-01-01 10:00:00:000"
	firstObject = 1000000
)

// fixed so identical skeletons produce identical files
var fileId = []byte{
	0x28, 0xb3, 0x2a, 0xeb, 0xb6, 0x24, 0xcc, 0xc2,
	0xbf, 0xc8, 0xb0, 0x2a, 0xa9, 0x2b, 0xfc, 0xf1}

type Builder struct {
	f      *fbx.FBX
	lastId int64

	objects     *fbx.Node
	connections *fbx.Node
	definitions *fbx.Node
}

// New creates a y-up document in engine units
func New(filename string) *Builder {
	b := &Builder{
		f:           fbx.NewFBX(fbxVersion),
		lastId:      firstObject,
		objects:     bfbx73.Objects(),
		connections: bfbx73.Connections(),
		definitions: bfbx73.Definitions(),
	}
	b.f.Root.AddNodes(
		headerExtension(filename),
		bfbx73.FileId(fileId),
		bfbx73.CreationTime(epochLocal),
		bfbx73.Creator(creator),
		globalSettings(),
		bfbx73.Documents().AddNodes(
			bfbx73.Count(1),
			bfbx73.Document(b.GenerateId(), "Scene", "Scene").AddNodes(
				bfbx73.Properties70().AddNodes(
					bfbx73.P("SourceObject", "object", "", ""),
					bfbx73.P("ActiveAnimStackName", "KString", "", "", ""),
				),
				bfbx73.RootNode(0),
			),
		),
		bfbx73.References(),
		b.definitions,
		b.objects,
		b.connections,
		bfbx73.Takes().AddNodes(bfbx73.Current("")),
	)
	return b
}

func headerExtension(filename string) *fbx.Node {
	props := bfbx73.Properties70().AddNodes(
		bfbx73.P("DocumentUrl", "KString", "Url", "", filename),
		bfbx73.P("SrcDocumentUrl", "KString", "Url", "", filename),
		bfbx73.P("Original", "Compound", "", ""),
		bfbx73.P("Original|FileName", "KString", "", "", filepath.Base(filename)),
		bfbx73.P("LastSaved", "Compound", "", ""),
	)
	for _, group := range []string{"Original", "LastSaved"} {
		props.AddNodes(
			bfbx73.P(group+"|ApplicationVendor", "KString", "", "", vendor),
			bfbx73.P(group+"|ApplicationName", "KString", "", "", creator),
			bfbx73.P(group+"|ApplicationVersion", "KString", "", "", appVersion),
			bfbx73.P(group+"|DateTime_GMT", "DateTime", "", "", epochGMT),
		)
	}

	return bfbx73.FBXHeaderExtension().AddNodes(
		bfbx73.FBXHeaderVersion(1003),
		bfbx73.FBXVersion(fbxVersion),
		bfbx73.EncryptionType(0),
		bfbx73.CreationTimeStamp().AddNodes(
			bfbx73.Version(1000),
			bfbx73.Year(1970),
			bfbx73.Month(1),
			bfbx73.Day(1),
			bfbx73.Hour(10),
			bfbx73.Minute(0),
			bfbx73.Second(0),
			bfbx73.Millisecond(0),
		),
		bfbx73.Creator(creator),
		bfbx73.SceneInfo("GlobalInfo\x00\x01SceneInfo", "UserData").AddNodes(
			bfbx73.Type("UserData"),
			bfbx73.Version(100),
			props,
		),
	)
}

// engine axes: y up, z front, x right
func globalSettings() *fbx.Node {
	axis := func(name string, v int32) *fbx.Node {
		return bfbx73.P(name, "int", "Integer", "", v)
	}
	return bfbx73.GlobalSettings().AddNodes(
		bfbx73.Version(1000),
		bfbx73.Properties70().AddNodes(
			axis("UpAxis", 1), axis("UpAxisSign", 1),
			axis("FrontAxis", 2), axis("FrontAxisSign", 1),
			axis("CoordAxis", 0), axis("CoordAxisSign", 1),
			axis("OriginalUpAxis", 1), axis("OriginalUpAxisSign", 1),
			bfbx73.P("UnitScaleFactor", "double", "Number", "", float64(1)),
			bfbx73.P("OriginalUnitScaleFactor", "double", "Number", "", float64(1)),
		),
	)
}

func (b *Builder) GenerateId() int64 {
	b.lastId++
	return b.lastId
}

func (b *Builder) AddObjects(nodes ...*fbx.Node) { b.objects.AddNodes(nodes...) }

// Connect parents object child to parent, 0 is the scene root
func (b *Builder) Connect(child, parent int64) {
	b.connections.AddNodes(bfbx73.C("OO", child, parent))
}

func (b *Builder) addModel(name, kind, attrFlags string, props *fbx.Node) int64 {
	id := b.GenerateId()
	model := bfbx73.Model(id, name+"\x00\x01Model", kind).AddNodes(
		bfbx73.Version(232),
		props,
		bfbx73.Shading(true),
		bfbx73.Culling("CullingOff"),
	)
	attr := bfbx73.NodeAttribute(b.GenerateId(), name+"\x00\x01NodeAttribute", kind).AddNodes(
		bfbx73.TypeFlags(attrFlags),
	)
	b.AddObjects(model, attr)
	b.Connect(attr.Properties[0].(int64), id)
	return id
}

// AddNull adds an empty transform node and returns its model id
func (b *Builder) AddNull(name string) int64 {
	return b.addModel(name, "Null", "Null", bfbx73.Properties70())
}

// AddLimb adds a bone node under parent with a local transform. rotation is
// euler degrees. mass is stored as a user property.
func (b *Builder) AddLimb(name string, parent int64, translation, rotation, scale mgl32.Vec3, mass float32) int64 {
	vec := func(name string, v mgl32.Vec3) *fbx.Node {
		return bfbx73.P(name, name, "", "A+", float64(v[0]), float64(v[1]), float64(v[2]))
	}
	id := b.addModel(name, "LimbNode", "Skeleton", bfbx73.Properties70().AddNodes(
		vec("Lcl Translation", translation),
		vec("Lcl Rotation", rotation),
		vec("Lcl Scaling", scale),
		bfbx73.P("Mass", "double", "Number", "U", float64(mass)),
	))
	b.Connect(id, parent)
	return id
}

func (b *Builder) countDefinitions() {
	counts := make(map[string]int32)
	var order []string
	for _, object := range b.objects.Nodes {
		if _, ok := counts[object.Name]; !ok {
			order = append(order, object.Name)
		}
		counts[object.Name]++
	}

	b.definitions.Nodes = nil
	total := int32(1) // GlobalSettings
	for _, name := range order {
		total += counts[name]
	}
	b.definitions.AddNodes(
		bfbx73.Version(100),
		bfbx73.Count(total),
		bfbx73.ObjectType("GlobalSettings").AddNodes(bfbx73.Count(1)),
	)
	for _, name := range order {
		b.definitions.AddNodes(bfbx73.ObjectType(name).AddNodes(bfbx73.Count(counts[name])))
	}
}

// Write encodes the document. fbx.Write seeks back to patch node offsets,
// so the data goes through a temporary file.
func (b *Builder) Write(w io.Writer) error {
	b.countDefinitions()

	tmp, err := os.CreateTemp("", "fbxexport.*.fbx")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if err := fbx.Write(tmp, b.f); err != nil {
		return errors.Wrapf(err, "fbx encoding")
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return errors.Wrapf(err, "Unable to seek")
	}
	_, err = io.Copy(w, tmp)
	return err
}
