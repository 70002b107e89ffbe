package meshtool

import (
	"context"
	"errors"
	"fmt"

	"github.com/danieloquelis/questvoice/core/tools"
)

// maxInlineExport caps how much exported mesh data is handed back to the
// agent.
const maxInlineExport = 4096

type CreatePrimitive struct {
	MeshID       string    `json:"mesh_id,omitempty" jsonschema:"description=Id for the new mesh"`
	Type         string    `json:"type" jsonschema:"enum=box,enum=sphere,enum=cylinder,enum=capsule"`
	Extents      []float64 `json:"extents,omitempty" jsonschema:"description=Box size along x y and z"`
	Radius       float64   `json:"radius,omitempty"`
	Height       float64   `json:"height,omitempty"`
	Subdivisions int       `json:"subdivisions,omitempty" jsonschema:"description=Sphere subdivision level"`
	Sections     int       `json:"sections,omitempty" jsonschema:"description=Cylinder segment count"`
}

type CreateComplexMesh struct {
	MeshID        string  `json:"mesh_id,omitempty"`
	Type          string  `json:"type" jsonschema:"enum=torus,enum=icosphere"`
	MajorRadius   float64 `json:"major_radius,omitempty"`
	MinorRadius   float64 `json:"minor_radius,omitempty"`
	MajorSections int     `json:"major_sections,omitempty"`
	MinorSections int     `json:"minor_sections,omitempty"`
	Radius        float64 `json:"radius,omitempty"`
	Subdivisions  int     `json:"subdivisions,omitempty"`
}

type BooleanOperation struct {
	MeshA     string `json:"mesh_a" jsonschema:"description=First operand mesh id"`
	MeshB     string `json:"mesh_b" jsonschema:"description=Second operand mesh id"`
	Operation string `json:"operation" jsonschema:"enum=union,enum=difference,enum=intersection"`
	ResultID  string `json:"result_id,omitempty"`
}

type Extrude struct {
	MeshID  string      `json:"mesh_id,omitempty"`
	Polygon [][]float64 `json:"polygon" jsonschema:"description=Closed 2D outline as a list of [x y] points"`
	Height  float64     `json:"height,omitempty"`
}

type Bevel struct {
	MeshID   string  `json:"mesh_id"`
	Distance float64 `json:"distance,omitempty" jsonschema:"description=Bevel width"`
	ResultID string  `json:"result_id,omitempty"`
}

type Rotation struct {
	Axis  []float64 `json:"axis" jsonschema:"description=Rotation axis as x y z"`
	Angle float64   `json:"angle" jsonschema:"description=Angle in radians"`
}

type TransformMesh struct {
	MeshID    string    `json:"mesh_id"`
	Translate []float64 `json:"translate,omitempty" jsonschema:"description=Offset as x y z"`
	Rotate    *Rotation `json:"rotate,omitempty"`
	Scale     []float64 `json:"scale,omitempty" jsonschema:"description=One factor for uniform scaling or x y z factors"`
	ResultID  string    `json:"result_id,omitempty"`
}

// params flattens a single scale factor into the scalar form the server
// expects for uniform scaling.
func (t TransformMesh) params() map[string]any {
	params := map[string]any{"mesh_id": t.MeshID}
	if len(t.Translate) > 0 {
		params["translate"] = t.Translate
	}
	if t.Rotate != nil {
		params["rotate"] = t.Rotate
	}
	switch len(t.Scale) {
	case 0:
	case 1:
		params["scale"] = t.Scale[0]
	default:
		params["scale"] = t.Scale
	}
	if t.ResultID != "" {
		params["result_id"] = t.ResultID
	}
	return params
}

type MeshRef struct {
	MeshID string `json:"mesh_id"`
}

type ListMeshes struct{}

type SaveMeshFile struct {
	MeshID    string `json:"mesh_id"`
	Filename  string `json:"filename,omitempty"`
	Format    string `json:"format,omitempty" jsonschema:"enum=glb,enum=obj,enum=stl,enum=ply"`
	OutputDir string `json:"output_dir,omitempty"`
}

type ExportMesh struct {
	MeshID string `json:"mesh_id"`
	Format string `json:"format,omitempty" jsonschema:"enum=obj,enum=stl,enum=ply,enum=glb"`
}

func call(ctx context.Context, client *Client, command string, params any) (any, error) {
	response, err := client.Call(ctx, command, params)
	if err != nil {
		return nil, err
	}
	return map[string]any(response), nil
}

// Register exposes every MeshTool command as a tool in registry.
func Register(registry *tools.Registry, client *Client) error {
	return errors.Join(
		tools.RegisterFunc(registry, "create_primitive",
			"Create a basic shape: box, sphere, cylinder or capsule",
			func(ctx context.Context, params CreatePrimitive) (any, error) {
				return call(ctx, client, "create_primitive", params)
			}),
		tools.RegisterFunc(registry, "create_complex_mesh",
			"Create a torus or icosphere",
			func(ctx context.Context, params CreateComplexMesh) (any, error) {
				return call(ctx, client, "create_complex_mesh", params)
			}),
		tools.RegisterFunc(registry, "boolean_operation",
			"Combine two meshes with a union, difference or intersection",
			func(ctx context.Context, params BooleanOperation) (any, error) {
				if params.MeshA == "" || params.MeshB == "" {
					return nil, fmt.Errorf("mesh_a and mesh_b are required")
				}
				return call(ctx, client, "boolean_operation", params)
			}),
		tools.RegisterFunc(registry, "extrude",
			"Extrude a 2D polygon into a 3D mesh",
			func(ctx context.Context, params Extrude) (any, error) {
				return call(ctx, client, "extrude", params)
			}),
		tools.RegisterFunc(registry, "bevel",
			"Bevel the edges of a mesh",
			func(ctx context.Context, params Bevel) (any, error) {
				return call(ctx, client, "bevel", params)
			}),
		tools.RegisterFunc(registry, "transform_mesh",
			"Translate, rotate or scale a mesh",
			func(ctx context.Context, params TransformMesh) (any, error) {
				return call(ctx, client, "transform_mesh", params.params())
			}),
		tools.RegisterFunc(registry, "get_mesh_info",
			"Describe a mesh: vertex and face counts, bounds, volume",
			func(ctx context.Context, params MeshRef) (any, error) {
				return call(ctx, client, "get_mesh_info", params)
			}),
		tools.RegisterFunc(registry, "list_meshes",
			"List every mesh in the scene",
			func(ctx context.Context, _ ListMeshes) (any, error) {
				return call(ctx, client, "list_meshes", nil)
			}),
		tools.RegisterFunc(registry, "delete_mesh",
			"Delete a mesh",
			func(ctx context.Context, params MeshRef) (any, error) {
				return call(ctx, client, "delete_mesh", params)
			}),
		tools.RegisterFunc(registry, "save_mesh_file",
			"Save a mesh to a file on disk",
			func(ctx context.Context, params SaveMeshFile) (any, error) {
				return call(ctx, client, "save_mesh_file", params)
			}),
		tools.RegisterFunc(registry, "export_mesh",
			"Export a mesh as base64 encoded file data",
			func(ctx context.Context, params ExportMesh) (any, error) {
				response, err := client.Call(ctx, "export_mesh", params)
				if err != nil {
					return nil, err
				}
				if data, ok := response["data"].(string); ok && len(data) > maxInlineExport {
					delete(response, "data")
					response["data_length"] = len(data)
					response["data_truncated"] = true
				}
				return map[string]any(response), nil
			}),
	)
}
