// Package transform converts step-local twists into world-frame twists via
// the adjoint of a homogeneous reference pose. Reference poses are assembled
// from per-object model matrices on disk and a hand pose supplied by the
// caller.
package transform

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/robotwin-lab/plancheck/pkg/schema"
)

// ModelFileName is the per-object model data file under the objects dir.
const ModelFileName = "model_data1.json"

// Mat4 is a 4x4 homogeneous transform, row-major.
type Mat4 [4][4]float64

// Identity returns the identity transform.
func Identity() Mat4 {
	var m Mat4
	for i := 0; i < 4; i++ {
		m[i][i] = 1
	}
	return m
}

// Mul returns a*b.
func (a Mat4) Mul(b Mat4) Mat4 {
	var out Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			var s float64
			for k := 0; k < 4; k++ {
				s += a[i][k] * b[k][j]
			}
			out[i][j] = s
		}
	}
	return out
}

// Translation returns the position column of the transform.
func (a Mat4) Translation() [3]float64 {
	return [3]float64{a[0][3], a[1][3], a[2][3]}
}

// Adjoint is the 6x6 adjoint of a homogeneous transform, acting on twists
// ordered linear-first: [vx vy vz wx wy wz].
type Adjoint [6][6]float64

// AdjointOf computes the adjoint. With R the rotation and p the translation
// of T, the blocks are [R, [p]x R; 0, R].
func AdjointOf(T Mat4) Adjoint {
	var R [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			R[i][j] = T[i][j]
		}
	}
	p := T.Translation()
	skew := [3][3]float64{
		{0, -p[2], p[1]},
		{p[2], 0, -p[0]},
		{-p[1], p[0], 0},
	}

	var pR [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var s float64
			for k := 0; k < 3; k++ {
				s += skew[i][k] * R[k][j]
			}
			pR[i][j] = s
		}
	}

	var adj Adjoint
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			adj[i][j] = R[i][j]
			adj[i][j+3] = pR[i][j]
			adj[i+3][j+3] = R[i][j]
		}
	}
	return adj
}

// Apply returns adj * v.
func (a Adjoint) Apply(v [6]float64) [6]float64 {
	var out [6]float64
	for i := 0; i < 6; i++ {
		var s float64
		for j := 0; j < 6; j++ {
			s += a[i][j] * v[j]
		}
		out[i] = s
	}
	return out
}

// ModelData holds the per-point transform chains of one object. Both lists
// are indexed by point id; either may be absent, in which case the identity
// stands in.
type ModelData struct {
	ContactMatrix    []Mat4 `json:"contact_matrix,omitempty"`
	FunctionalMatrix []Mat4 `json:"functional_matrix,omitempty"`
}

// LoadModelData reads <objectsDir>/<object>/model_data1.json. A missing file
// returns (nil, nil): objects without model data fall back to the hand pose.
func LoadModelData(objectsDir, object string) (*ModelData, error) {
	path := filepath.Join(objectsDir, object, ModelFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read model data for %q: %w", object, err)
	}
	var md ModelData
	if err := json.Unmarshal(data, &md); err != nil {
		return nil, fmt.Errorf("parse model data for %q: %w", object, err)
	}
	return &md, nil
}

func matAt(list []Mat4, id int) Mat4 {
	if id >= 0 && id < len(list) {
		return list[id]
	}
	return Identity()
}

// Transformer turns sanitized steps into world twists, given a world-frame
// hand pose.
type Transformer struct {
	ObjectsDir string
	HandPose   Mat4
}

// ReferencePose builds the frame the step's twist is expressed in.
//
// CONTACT chains the hand pose with the contact matrix of the actor point;
// FUNCTIONAL further chains the functional matrix. WORLD keeps an identity
// rotation but takes the contact translation so positional leverage is
// preserved. Objects without model data use the hand pose directly.
func (t *Transformer) ReferencePose(st *schema.Step) (Mat4, error) {
	if st.ActorObj == "" {
		return t.HandPose, nil
	}
	md, err := LoadModelData(t.ObjectsDir, st.ActorObj)
	if err != nil {
		return Mat4{}, err
	}
	if md == nil {
		return t.HandPose, nil
	}

	ptID := 0
	if st.ActorPoint != nil {
		ptID = *st.ActorPoint
	}
	thc := matAt(md.ContactMatrix, ptID)

	switch st.Frame {
	case schema.FrameContact:
		return t.HandPose.Mul(thc), nil
	case schema.FrameFunctional:
		tcf := matAt(md.FunctionalMatrix, ptID)
		return t.HandPose.Mul(thc).Mul(tcf), nil
	default:
		ref := Identity()
		p := t.HandPose.Mul(thc).Translation()
		ref[0][3], ref[1][3], ref[2][3] = p[0], p[1], p[2]
		return ref, nil
	}
}

// WorldTwist maps the step's local twist V into the world frame.
func (t *Transformer) WorldTwist(st *schema.Step) ([6]float64, Mat4, error) {
	ref, err := t.ReferencePose(st)
	if err != nil {
		return [6]float64{}, Mat4{}, err
	}
	return AdjointOf(ref).Apply(st.V), ref, nil
}

// PlanWorldTwists maps every step of a plan, returning twists in step order.
func (t *Transformer) PlanWorldTwists(p *schema.Plan) ([][6]float64, error) {
	out := make([][6]float64, 0, len(p.Sequence))
	for i := range p.Sequence {
		v, _, err := t.WorldTwist(&p.Sequence[i])
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}
