package systems

import (
	"fmt"
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/renderer/components"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

// Drawer submits one draw command and reports whether it reached the GPU.
type Drawer interface {
	Draw(cmd *metadata.DrawCommand) bool
}

// ObjectRegistry owns every registered object. Layers and names only hold
// ids.
type ObjectRegistry struct {
	mutex   sync.RWMutex
	ids     *core.IdentifierGenerator
	objects map[ObjectID]*Object
	names   map[string]ObjectID
	layers  map[int][]ObjectID
	// ascending
	layerKeys []int

	timers     *core.TimerService
	animations *AnimationSystem
	physics    *PhysicsSystem
	drawer     Drawer
	camera     *components.Camera
	ctx        *FrameContext

	showHitboxes bool
}

func NewObjectRegistry(timers *core.TimerService, animations *AnimationSystem, physics *PhysicsSystem, drawer Drawer, camera *components.Camera) *ObjectRegistry {
	r := &ObjectRegistry{
		ids:        core.NewIdentifierGenerator(),
		objects:    make(map[ObjectID]*Object),
		names:      make(map[string]ObjectID),
		layers:     make(map[int][]ObjectID),
		timers:     timers,
		animations: animations,
		physics:    physics,
		drawer:     drawer,
		camera:     camera,
	}
	r.ctx = &FrameContext{
		Registry:   r,
		Physics:    physics,
		Animations: animations,
		Camera:     camera,
	}
	if physics != nil {
		physics.Bind(r)
	}
	return r
}

// Shutdown deletes every object, highest id first.
func (r *ObjectRegistry) Shutdown() error {
	r.mutex.RLock()
	ids := make([]ObjectID, 0, len(r.objects))
	for id := range r.objects {
		ids = append(ids, id)
	}
	r.mutex.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })
	for _, id := range ids {
		if r.Has(id) {
			r.Delete(id)
		}
	}
	return nil
}

// Context is the frame context passed to behaviors.
func (r *ObjectRegistry) Context() *FrameContext {
	return r.ctx
}

func (r *ObjectRegistry) SetShowHitboxes(show bool) {
	r.showHitboxes = show
}

func (r *ObjectRegistry) ShowHitboxes() bool {
	return r.showHitboxes
}

// Register takes ownership of obj. A taken name is refused and the first
// registration kept.
func (r *ObjectRegistry) Register(layer int, name string, obj *Object) (ObjectID, error) {
	if obj == nil || obj.IsEmpty() {
		err := fmt.Errorf("cannot register a nil or empty object '%s': %w", name, core.ErrInvalidIndex)
		core.LogError(err.Error())
		return InvalidObjectID, err
	}
	if obj.id != InvalidObjectID {
		err := fmt.Errorf("object %d is already registered, '%s' refused: %w", obj.id, name, core.ErrDuplicateName)
		core.LogError(err.Error())
		return InvalidObjectID, err
	}

	r.mutex.Lock()
	if name != "" {
		if existing, ok := r.names[name]; ok {
			r.mutex.Unlock()
			err := fmt.Errorf("name '%s' already belongs to object %d: %w", name, existing, core.ErrDuplicateName)
			core.LogError(err.Error())
			return InvalidObjectID, err
		}
	}

	if obj.textured && (obj.animation == nil || !obj.animation.IsLoaded()) && r.animations != nil {
		if obj.animation != nil {
			core.LogWarn("object '%s' has an unloaded animation '%s', binding the placeholder", name, obj.animation.Name())
		}
		obj.ReplaceAnimation(r.animations.Placeholder())
	}

	id := ObjectID(r.ids.AquireNewID())
	obj.id = id
	obj.name = name
	obj.layer = layer
	obj.loopTimer = r.timers.Create()

	r.objects[id] = obj
	if name != "" {
		r.names[name] = id
	}
	r.insertLayerLocked(layer, id)
	r.mutex.Unlock()

	core.LogDebug("registered %s '%s' with id %d on layer %d", obj.category, name, id, layer)
	return id, nil
}

func (r *ObjectRegistry) insertLayerLocked(layer int, id ObjectID) {
	if _, ok := r.layers[layer]; !ok {
		i := sort.SearchInts(r.layerKeys, layer)
		r.layerKeys = append(r.layerKeys, 0)
		copy(r.layerKeys[i+1:], r.layerKeys[i:])
		r.layerKeys[i] = layer
	}
	r.layers[layer] = append(r.layers[layer], id)
}

func (r *ObjectRegistry) removeLayerLocked(layer int, id ObjectID) {
	bucket := r.layers[layer]
	for i, other := range bucket {
		if other == id {
			bucket = append(bucket[:i:i], bucket[i+1:]...)
			break
		}
	}
	if len(bucket) > 0 {
		r.layers[layer] = bucket
		return
	}
	delete(r.layers, layer)
	if i := sort.SearchInts(r.layerKeys, layer); i < len(r.layerKeys) && r.layerKeys[i] == layer {
		r.layerKeys = append(r.layerKeys[:i], r.layerKeys[i+1:]...)
	}
}

// Lookup finds an object without logging on a miss.
func (r *ObjectRegistry) Lookup(id ObjectID) (*Object, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	obj, ok := r.objects[id]
	return obj, ok
}

func (r *ObjectRegistry) Has(id ObjectID) bool {
	_, ok := r.Lookup(id)
	return ok
}

// Get returns the object, or a fresh empty object after logging the miss.
func (r *ObjectRegistry) Get(id ObjectID) *Object {
	if obj, ok := r.Lookup(id); ok {
		return obj
	}
	core.LogWarn("no object with id %d: %s", id, core.ErrLookupMiss)
	return newEmptyObject()
}

// GetByName returns the object, or a fresh empty object after logging the
// miss.
func (r *ObjectRegistry) GetByName(name string) *Object {
	r.mutex.RLock()
	id, ok := r.names[name]
	var obj *Object
	if ok {
		obj = r.objects[id]
	}
	r.mutex.RUnlock()

	if obj == nil {
		core.LogWarn("no object named '%s': %s", name, core.ErrLookupMiss)
		return newEmptyObject()
	}
	return obj
}

// Delete removes the object from every index and tears down what hangs off
// it: its hitboxes and their collision pairs, child hitbox objects, the
// behavior and the bound animation. The returned object belongs to the caller
// and carries no id, so it can be registered again.
func (r *ObjectRegistry) Delete(id ObjectID) (*Object, error) {
	r.mutex.Lock()
	obj, ok := r.objects[id]
	if !ok {
		r.mutex.Unlock()
		err := fmt.Errorf("cannot delete object %d: %w", id, core.ErrLookupMiss)
		core.LogWarn(err.Error())
		return newEmptyObject(), err
	}
	delete(r.objects, id)
	if obj.name != "" && r.names[obj.name] == id {
		delete(r.names, obj.name)
	}
	r.removeLayerLocked(obj.layer, id)

	var children []ObjectID
	for childID, child := range r.objects {
		if child.category == Hitbox && child.parent == id {
			children = append(children, childID)
		}
	}
	r.mutex.Unlock()

	if r.physics != nil {
		r.physics.DestroyHitBoxesOf(id)
		if obj.category == Hitbox && obj.hitbox != InvalidHitBoxID {
			r.physics.DestroyHitBox(obj.hitbox)
		}
	}
	sort.Slice(children, func(i, j int) bool { return children[i] < children[j] })
	for _, childID := range children {
		r.Delete(childID)
	}

	if d, ok := obj.behavior.(Destroyer); ok {
		d.OnDestroy(obj)
	}
	if obj.animation != nil {
		obj.animation.Destroy()
	}
	r.timers.Kill(obj.loopTimer)
	obj.loopTimer = core.InvalidTimerHandle

	core.LogDebug("deleted object %d '%s'", id, obj.name)
	obj.id = InvalidObjectID
	obj.name = ""
	obj.layer = 0
	return obj, nil
}

// SetLayer moves the object to the end of another layer.
func (r *ObjectRegistry) SetLayer(id ObjectID, layer int) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	obj, ok := r.objects[id]
	if !ok {
		err := fmt.Errorf("cannot move object %d to layer %d: %w", id, layer, core.ErrLookupMiss)
		core.LogWarn(err.Error())
		return err
	}
	r.removeLayerLocked(obj.layer, id)
	obj.layer = layer
	r.insertLayerLocked(layer, id)
	return nil
}

// AttachHitBox creates a hitbox following parent and a Hitbox object that
// mirrors it on the given layer.
func (r *ObjectRegistry) AttachHitBox(parent ObjectID, layer int, relX, relY, width, height float32) (ObjectID, HitBoxID, error) {
	if r.physics == nil {
		return InvalidObjectID, InvalidHitBoxID, fmt.Errorf("registry has no physics: %w", core.ErrNotInitialized)
	}
	p, ok := r.Lookup(parent)
	if !ok {
		err := fmt.Errorf("cannot attach a hitbox to object %d: %w", parent, core.ErrLookupMiss)
		core.LogWarn(err.Error())
		return InvalidObjectID, InvalidHitBoxID, err
	}
	hb, err := r.physics.CreateAttachedHitBox(p, relX, relY, width, height)
	if err != nil {
		return InvalidObjectID, InvalidHitBoxID, err
	}

	obj := NewObject(Hitbox, p.X+relX, p.Y+relY, width, height)
	obj.parent = parent
	obj.hitbox = hb
	id, err := r.Register(layer, "", obj)
	if err != nil {
		r.physics.DestroyHitBox(hb)
		return InvalidObjectID, InvalidHitBoxID, err
	}
	return id, hb, nil
}

func (r *ObjectRegistry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.objects)
}

// Layers returns the populated layers, ascending.
func (r *ObjectRegistry) Layers() []int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return append([]int(nil), r.layerKeys...)
}

// PaintOrder lists ids in draw order: layers from highest to lowest value,
// insertion order within a layer. Lower layers therefore paint on top.
func (r *ObjectRegistry) PaintOrder() []ObjectID {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	order := make([]ObjectID, 0, len(r.objects))
	for i := len(r.layerKeys) - 1; i >= 0; i-- {
		order = append(order, r.layers[r.layerKeys[i]]...)
	}
	return order
}

// DrawAll runs one frame over every object in paint order and returns the
// number of successful draws. Objects registered during the frame wait for
// the next one; objects deleted during it are skipped.
func (r *ObjectRegistry) DrawAll() int {
	drawn := 0
	for _, id := range r.PaintOrder() {
		obj, ok := r.Lookup(id)
		if !ok {
			continue
		}
		if r.drawObject(obj) {
			drawn++
		}
	}
	r.ctx.Frame++
	return drawn
}

func (r *ObjectRegistry) drawObject(obj *Object) (drawn bool) {
	defer func() {
		if rec := recover(); rec != nil {
			core.LogError("object %d '%s' failed during draw: %v", obj.id, obj.name, rec)
			drawn = false
		}
	}()

	elapsed := r.timers.ElapsedMs(obj.loopTimer)
	r.timers.Reset(obj.loopTimer)
	// hidden objects do not bank time for when they are shown again
	if !obj.visible {
		return false
	}

	switch obj.category {
	case Entity:
		if obj.behavior != nil {
			obj.behavior.Events(r.ctx, obj)
		}
		if u, ok := obj.behavior.(Updater); ok {
			u.Update(r.ctx, obj, elapsed)
		} else {
			IntegrateObject(obj, float32(elapsed))
		}
	case SubEntity:
		if obj.behavior != nil {
			obj.behavior.Events(r.ctx, obj)
		}
		if u, ok := obj.behavior.(Updater); ok {
			u.Update(r.ctx, obj, elapsed)
		}
	case NonEntity, HUDElement:
		if obj.behavior != nil {
			obj.behavior.Events(r.ctx, obj)
		}
	case Hitbox:
		r.syncHitBox(obj)
		if !r.showHitboxes {
			return false
		}
	}

	// a hook may have deleted or hidden the object
	if !r.Has(obj.id) || !obj.visible {
		return false
	}
	if r.drawer == nil {
		return false
	}
	cmd := r.drawCommand(obj)
	return r.drawer.Draw(&cmd)
}

func (r *ObjectRegistry) syncHitBox(obj *Object) {
	if r.physics == nil {
		return
	}
	if hb, ok := r.physics.SyncHitBox(obj.hitbox); ok {
		obj.X, obj.Y = hb.Bounds.X, hb.Bounds.Y
		obj.Width, obj.Height = hb.Bounds.Width, hb.Bounds.Height
	}
}

func (r *ObjectRegistry) drawCommand(obj *Object) metadata.DrawCommand {
	view, projection := mgl32.Ident4(), mgl32.Ident4()
	if r.camera != nil {
		projection = r.camera.GetProjection()
		if obj.affectedByCamera {
			view = r.camera.GetView()
		}
	}

	cmd := metadata.DrawCommand{
		ObjectID:   uint32(obj.id),
		Model:      obj.Model(),
		View:       view,
		Projection: projection,
		Vertices:   metadata.NewQuadVertices(obj.colors, obj.flipHorizontal, obj.flipVertical),
		Topology:   metadata.PrimitiveTopologyTriangles,
	}
	if obj.category == Hitbox {
		cmd.Topology = metadata.PrimitiveTopologyLines
		return cmd
	}
	if obj.textured && obj.animation != nil {
		if handle := obj.animation.Step(); handle.IsValid() {
			cmd.Textured = true
			cmd.Texture = handle
		}
	}
	return cmd
}
