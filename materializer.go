package m2c2

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

// ErrUnknownNodeType is returned when a NodeNew event names a node kind
// this package cannot build.
var ErrUnknownNodeType = errors.New("m2c2: unknown node type")

// Materializer rebuilds a game's node tree from recorded events. Nodes it
// creates keep their recorded UUIDs.
type Materializer struct {
	game  *Game
	nodes map[string]*Node
}

func newMaterializer(g *Game) *Materializer {
	return &Materializer{game: g, nodes: make(map[string]*Node)}
}

// Node returns the materialized node with the given UUID, or nil.
func (m *Materializer) Node(id string) *Node { return m.nodes[id] }

// Len returns the number of materialized nodes.
func (m *Materializer) Len() int { return len(m.nodes) }

// Materialize applies events in order. It stops at the first event that
// cannot be applied; the replay is then inconsistent and must not go on.
func (m *Materializer) Materialize(events []Event) error {
	for _, e := range events {
		if err := m.materialize(e); err != nil {
			logger().Error("materialize event",
				zap.String("type", string(e.Type)),
				zap.Int64("sequence", e.Sequence),
				zap.Error(err),
			)
			return fmt.Errorf("m2c2: materialize %s event %d: %w", e.Type, e.Sequence, err)
		}
	}
	return nil
}

// materialize applies one event. Tree preconditions panic in the node API;
// they are returned as errors here since they mean a corrupt log.
func (m *Materializer) materialize(e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if re, ok := r.(error); ok {
				err = re
				return
			}
			err = fmt.Errorf("%v", r)
		}
	}()

	g := m.game
	switch e.Type {
	case EventNodeNew:
		return m.nodeNew(e)
	case EventNodePropertyChange:
		n, err := m.node(e.UUID)
		if err != nil {
			return err
		}
		return applyProperty(n, e.Property, e.Value)
	case EventNodeAddChild, EventNodeRemoveChild:
		parent, err := m.node(e.UUID)
		if err != nil {
			return err
		}
		child, err := m.node(e.ChildUUID)
		if err != nil {
			return err
		}
		if e.Type == EventNodeAddChild {
			parent.AddChild(child)
		} else {
			parent.RemoveChild(child)
		}
	case EventScenePresent:
		scene, err := m.node(e.UUID)
		if err != nil {
			return err
		}
		t, err := transitionFromEvent(e)
		if err != nil {
			return err
		}
		g.presentScene(scene, t)
	case EventDomPointerDown:
		if e.X == nil || e.Y == nil {
			return errors.New("m2c2: pointer down without coordinates")
		}
		g.showTapRipple(*e.X, *e.Y)
	case EventBrowserImageDataReady:
		if e.ImageDescriptor == nil {
			return errors.New("m2c2: image event without descriptor")
		}
		if g.images == nil {
			return errors.New("m2c2: no image manager")
		}
		return g.images.Load(*e.ImageDescriptor)
	case EventI18nDataReady:
		if e.I18n == nil {
			return errors.New("m2c2: i18n event without data")
		}
		g.applyI18n(*e.I18n)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEventType, e.Type)
	}
	return nil
}

func (m *Materializer) node(id string) (*Node, error) {
	n, ok := m.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	return n, nil
}

// nodeNew builds the node described by a NodeNew event. Scenes are added
// to the game; the recorded free nodes scene maps onto this game's own.
func (m *Materializer) nodeNew(e Event) error {
	if e.UUID == "" {
		return errors.New("m2c2: node event without uuid")
	}
	if _, ok := m.nodes[e.UUID]; ok {
		return fmt.Errorf("m2c2: node %s was already created", e.UUID)
	}
	var n *Node
	switch e.NodeType {
	case NodeTypeNode:
		var o NodeOptions
		if err := decodeValue(e.NodeOptions, &o); err != nil {
			return err
		}
		n = newNode(NodeTypeNode, o, o, e.UUID)
	case NodeTypeScene:
		var o SceneOptions
		if err := decodeValue(e.NodeOptions, &o); err != nil {
			return err
		}
		if o.Name == freeNodesSceneName {
			m.nodes[e.UUID] = m.game.freeNodesScene
			return nil
		}
		n = newScene(o, e.UUID)
		m.game.AddScene(n)
	case NodeTypeShape:
		var o ShapeOptions
		if err := decodeValue(e.NodeOptions, &o); err != nil {
			return err
		}
		n = newShape(o, e.UUID)
	case NodeTypeLabel:
		var o LabelOptions
		if err := decodeValue(e.NodeOptions, &o); err != nil {
			return err
		}
		n = newLabel(o, e.UUID)
	case NodeTypeTextLine:
		var o TextLineOptions
		if err := decodeValue(e.NodeOptions, &o); err != nil {
			return err
		}
		n = newTextLine(o, e.UUID)
	case NodeTypeSprite:
		var o SpriteOptions
		if err := decodeValue(e.NodeOptions, &o); err != nil {
			return err
		}
		n = newSprite(o, e.UUID)
	case NodeTypeComposite:
		var o CompositeOptions
		if err := decodeValue(e.NodeOptions, &o); err != nil {
			return err
		}
		if o.CompositeType == "" {
			o.CompositeType = e.CompositeType
		}
		n = newComposite(o, e.UUID)
	case NodeTypeSoundPlayer:
		var o SoundPlayerOptions
		if err := decodeValue(e.NodeOptions, &o); err != nil {
			return err
		}
		n = newSoundPlayer(o, e.UUID)
	case NodeTypeSoundRecorder:
		var o SoundRecorderOptions
		if err := decodeValue(e.NodeOptions, &o); err != nil {
			return err
		}
		n = newSoundRecorder(o, e.UUID)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownNodeType, e.NodeType)
	}
	m.nodes[e.UUID] = n
	return nil
}

// decodeValue decodes a value read back from JSON (maps, []any, float64)
// into out, a pointer to an option struct or property type.
func decodeValue(input, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(nodeRefHook, colorHook),
		Result:     out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

var (
	nodeRefType = reflect.TypeOf(NodeRef{})
	colorType   = reflect.TypeOf(Color{})
)

// nodeRefHook decodes a name or UUID string into a NodeRef.
func nodeRefHook(from, to reflect.Type, data any) (any, error) {
	if to != nodeRefType || from.Kind() != reflect.String {
		return data, nil
	}
	return NodeRef{id: data.(string)}, nil
}

// colorHook decodes a [r, g, b, a] array into a Color.
func colorHook(from, to reflect.Type, data any) (any, error) {
	if to != colorType {
		return data, nil
	}
	if from.Kind() != reflect.Slice && from.Kind() != reflect.Array {
		return data, nil
	}
	v := reflect.ValueOf(data)
	if v.Len() != 4 {
		return nil, fmt.Errorf("m2c2: color needs 4 components, got %d", v.Len())
	}
	var c [4]float64
	for i := range c {
		f, ok := toFloat(v.Index(i).Interface())
		if !ok {
			return nil, fmt.Errorf("m2c2: color component %d is %T", i, v.Index(i).Interface())
		}
		c[i] = f
	}
	return Color{c[0], c[1], c[2], c[3]}, nil
}

func toFloat(v any) (float64, bool) {
	switch f := v.(type) {
	case float64:
		return f, true
	case float32:
		return float64(f), true
	case int:
		return float64(f), true
	case int64:
		return float64(f), true
	}
	return 0, false
}
