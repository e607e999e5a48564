package systems

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

type recorder struct {
	events    int
	updates   int
	elapsed   []float64
	destroyed int
}

func (r *recorder) Events(ctx *FrameContext, obj *Object) { r.events++ }

func (r *recorder) Update(ctx *FrameContext, obj *Object, elapsedMs float64) {
	r.updates++
	r.elapsed = append(r.elapsed, elapsedMs)
}

func (r *recorder) OnDestroy(obj *Object) { r.destroyed++ }

type eventsOnly struct{ events int }

func (e *eventsOnly) Events(ctx *FrameContext, obj *Object) { e.events++ }

type panicker struct{}

func (panicker) Events(ctx *FrameContext, obj *Object) { panic("boom") }

type selfDeleter struct{}

func (selfDeleter) Events(ctx *FrameContext, obj *Object) { ctx.Registry.Delete(obj.ID()) }

func TestRegisterAssignsMonotonicIDs(t *testing.T) {
	h := newHarness(t, "")
	reg := h.sm.Registry

	var last ObjectID
	for i, name := range []string{"a", "b", "", "c", ""} {
		obj := NewObject(NonEntity, 0, 0, 1, 1)
		id, err := reg.Register(i%3, name, obj)
		if err != nil {
			t.Fatalf("Register(%q): %v", name, err)
		}
		if id <= last {
			t.Fatalf("id %d not greater than %d", id, last)
		}
		last = id
		if reg.Get(id) != obj {
			t.Errorf("Get(%d) returned another object", id)
		}
		if obj.ID() != id || obj.Layer() != i%3 {
			t.Errorf("object not stamped with id/layer")
		}
	}

	// ids are never reused
	reg.Delete(last)
	id, _ := reg.Register(0, "d", NewObject(NonEntity, 0, 0, 1, 1))
	if id <= last {
		t.Errorf("id %d reused after delete", id)
	}
}

func TestRegisterDuplicateName(t *testing.T) {
	h := newHarness(t, "")
	reg := h.sm.Registry

	first := NewObject(NonEntity, 1, 1, 1, 1)
	firstID, _ := reg.Register(0, "ground", first)

	second := NewObject(NonEntity, 2, 2, 1, 1)
	id, err := reg.Register(3, "ground", second)
	if !errors.Is(err, core.ErrDuplicateName) || id != InvalidObjectID {
		t.Fatalf("duplicate name: id=%d err=%v", id, err)
	}
	if reg.GetByName("ground") != first {
		t.Errorf("first registration must win")
	}
	if reg.Count() != 1 || len(reg.PaintOrder()) != 1 || len(reg.Layers()) != 1 {
		t.Errorf("duplicate registration touched an index")
	}

	if _, err := reg.Register(0, "again", first); !errors.Is(err, core.ErrDuplicateName) {
		t.Errorf("re-registering an object: got %v", err)
	}
	if _, err := reg.Register(0, "nil", nil); err == nil {
		t.Errorf("registering nil must fail")
	}
	if reg.Get(firstID).IsEmpty() {
		t.Errorf("original object lost")
	}
}

func TestLookupMissReturnsSentinel(t *testing.T) {
	h := newHarness(t, "")
	reg := h.sm.Registry

	byID := reg.Get(404)
	byName := reg.GetByName("nobody")
	for _, obj := range []*Object{byID, byName} {
		if obj == nil || !obj.IsEmpty() {
			t.Fatalf("expected an empty sentinel, got %+v", obj)
		}
	}
	byID.X = 99
	if reg.Get(404).X != 0 {
		t.Errorf("sentinel must be fresh on every miss")
	}
	if reg.GetByName("nobody").Y != 0 {
		t.Errorf("sentinel must read as zero")
	}
}

func TestDeleteClearsEveryIndex(t *testing.T) {
	h := newHarness(t, "")
	reg := h.sm.Registry

	rec := &recorder{}
	obj := NewObject(SubEntity, 0, 0, 1, 1)
	obj.SetBehavior(rec)
	id, _ := reg.Register(5, "npc", obj)
	otherID, _ := reg.Register(5, "tree", NewObject(NonEntity, 0, 0, 1, 1))
	timers := h.timers.Count()

	got, err := reg.Delete(id)
	if err != nil || got != obj {
		t.Fatalf("Delete: obj=%v err=%v", got, err)
	}
	if !reg.Get(id).IsEmpty() || !reg.GetByName("npc").IsEmpty() {
		t.Errorf("deleted object still reachable")
	}
	for _, pid := range reg.PaintOrder() {
		if pid == id {
			t.Errorf("deleted id still in the layer list")
		}
	}
	if rec.destroyed != 1 {
		t.Errorf("OnDestroy called %d times, want 1", rec.destroyed)
	}
	if obj.Animation() != nil && obj.Animation().IsLoaded() {
		t.Errorf("animation must be destroyed with its object")
	}
	if h.timers.Count() >= timers {
		t.Errorf("loop and animation timers should be killed")
	}

	if _, err := reg.Delete(id); !errors.Is(err, core.ErrLookupMiss) {
		t.Errorf("second delete: got %v", err)
	}
	if _, err := reg.Register(0, "npc", NewObject(NonEntity, 0, 0, 1, 1)); err != nil {
		t.Errorf("freed name should be reusable: %v", err)
	}

	reg.Delete(otherID)
	for _, l := range reg.Layers() {
		if l == 5 {
			t.Errorf("empty layer 5 still listed")
		}
	}
}

func TestDeleteCascadesHitBoxes(t *testing.T) {
	h := newHarness(t, "")
	reg, ps := h.sm.Registry, h.sm.PhysicsSystem

	playerID, _ := reg.Register(1, "player", NewObject(Entity, 0, 0, 10, 10))
	hitboxObj, feet, err := reg.AttachHitBox(playerID, 0, 0, 8, 10, 2)
	if err != nil {
		t.Fatalf("AttachHitBox: %v", err)
	}
	wall := ps.CreateHitBox(mathRect(20, 0, 5, 5))
	collision, _ := ps.ListenCollisions(feet, wall)

	reg.Delete(playerID)

	if reg.Has(hitboxObj) {
		t.Errorf("hitbox object should be deleted with its parent")
	}
	if _, ok := ps.HitBox(feet); ok {
		t.Errorf("physics hitbox should be destroyed with its parent")
	}
	if ps.HasCollision(collision) {
		t.Errorf("collision pair should be destroyed with its hitbox")
	}
	if _, ok := ps.HitBox(wall); !ok {
		t.Errorf("unrelated hitbox destroyed")
	}
}

func TestDeletedObjectCanBeRegisteredAgain(t *testing.T) {
	h := newHarness(t, "placeholder", "placeholder")
	reg := h.sm.Registry

	first, _ := reg.Register(5, "npc", NewObject(NonEntity, 0, 0, 1, 1))
	obj, err := reg.Delete(first)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if obj.ID() != InvalidObjectID || obj.Name() != "" || obj.Layer() != 0 {
		t.Errorf("deleted object kept id=%d name=%q layer=%d", obj.ID(), obj.Name(), obj.Layer())
	}

	second, err := reg.Register(2, "npc", obj)
	if err != nil {
		t.Fatalf("Register after Delete: %v", err)
	}
	if second <= first {
		t.Errorf("id = %d, want greater than %d", second, first)
	}
	if obj.ID() != second || obj.Layer() != 2 || reg.GetByName("npc") != obj {
		t.Errorf("object not indexed under its new id")
	}
	if obj.Animation() == nil || !obj.Animation().IsLoaded() {
		t.Errorf("placeholder should be bound again")
	}
	if n := h.sm.TextureSystem.ReferenceCount("placeholder", false); n != 1 {
		t.Errorf("placeholder references = %d, want 1", n)
	}
}

func TestPaintOrder(t *testing.T) {
	h := newHarness(t, "")
	reg := h.sm.Registry

	a, _ := reg.Register(2, "A", NewObject(NonEntity, 0, 0, 1, 1))
	b, _ := reg.Register(1, "B", NewObject(NonEntity, 0, 0, 1, 1))
	c, _ := reg.Register(1, "C", NewObject(NonEntity, 0, 0, 1, 1))

	want := []ObjectID{a, b, c}
	if got := reg.PaintOrder(); !equalIDs(got, want) {
		t.Fatalf("PaintOrder = %v, want %v", got, want)
	}

	h.frame(16)
	draws := h.backend.Draws()
	if len(draws) != 3 {
		t.Fatalf("%d draws, want 3", len(draws))
	}
	for i, id := range want {
		if ObjectID(draws[i].ObjectID) != id {
			t.Errorf("draw %d is object %d, want %d", i, draws[i].ObjectID, id)
		}
	}

	// moving B to a higher layer puts it first; moving A down puts it last
	reg.SetLayer(b, 3)
	reg.SetLayer(a, 1)
	if got := reg.PaintOrder(); !equalIDs(got, []ObjectID{b, c, a}) {
		t.Errorf("after SetLayer PaintOrder = %v", got)
	}
	if err := reg.SetLayer(999, 0); !errors.Is(err, core.ErrLookupMiss) {
		t.Errorf("SetLayer on a missing id: %v", err)
	}
}

func TestDrawAllDispatch(t *testing.T) {
	h := newHarness(t, "")
	reg := h.sm.Registry

	entityRec, subRec := &recorder{}, &recorder{}
	nonRec, hudRec := &eventsOnly{}, &eventsOnly{}

	entity := NewEntity(0, 0, 1, 1, entityRec)
	sub := NewObject(SubEntity, 0, 0, 1, 1)
	sub.SetBehavior(subRec)
	non := NewObject(NonEntity, 0, 0, 1, 1)
	non.SetBehavior(nonRec)
	hud := NewObject(HUDElement, 0, 0, 1, 1)
	hud.SetBehavior(hudRec)
	hidden := NewObject(SubEntity, 0, 0, 1, 1)
	hiddenRec := &recorder{}
	hidden.SetBehavior(hiddenRec)
	hidden.Hide()

	reg.Register(0, "entity", entity)
	reg.Register(0, "sub", sub)
	reg.Register(0, "non", non)
	reg.Register(0, "hud", hud)
	reg.Register(0, "hidden", hidden)

	if n := h.frame(16); n != 4 {
		t.Errorf("drew %d objects, want 4", n)
	}
	h.frame(20)

	if entityRec.events != 2 || entityRec.updates != 2 {
		t.Errorf("entity events=%d updates=%d", entityRec.events, entityRec.updates)
	}
	if subRec.events != 2 || subRec.updates != 2 {
		t.Errorf("sub-entity events=%d updates=%d", subRec.events, subRec.updates)
	}
	if nonRec.events != 2 || hudRec.events != 2 {
		t.Errorf("non-entity=%d hud=%d events", nonRec.events, hudRec.events)
	}
	if hiddenRec.events != 0 {
		t.Errorf("hidden objects must be skipped")
	}
	if len(entityRec.elapsed) != 2 || entityRec.elapsed[0] != 16 || entityRec.elapsed[1] != 20 {
		t.Errorf("elapsed = %v, want [16 20]", entityRec.elapsed)
	}
}

func TestEntityWithoutUpdaterIsIntegrated(t *testing.T) {
	h := newHarness(t, "")
	obj := NewEntity(0, 0, 1, 1, &eventsOnly{})
	obj.Kinematics.VelocityX = 0.5
	h.sm.Registry.Register(0, "drifter", obj)

	h.frame(10)
	if obj.X != 5 {
		t.Errorf("X = %v, want 5", obj.X)
	}
}

func TestHiddenEntityDoesNotBankTime(t *testing.T) {
	h := newHarness(t, "")
	rec := &recorder{}
	obj := NewEntity(0, 0, 1, 1, rec)
	obj.Hide()
	h.sm.Registry.Register(0, "ghost", obj)

	h.frame(16)
	h.frame(500)
	obj.Show()
	h.frame(20)

	if len(rec.elapsed) != 1 || rec.elapsed[0] != 20 {
		t.Errorf("elapsed = %v, want [20]", rec.elapsed)
	}
}

func TestDrawAllSurvivesMisbehavingObjects(t *testing.T) {
	h := newHarness(t, "")
	reg := h.sm.Registry

	bad := NewObject(NonEntity, 0, 0, 1, 1)
	bad.SetBehavior(panicker{})
	quitter := NewObject(NonEntity, 0, 0, 1, 1)
	quitter.SetBehavior(selfDeleter{})
	good := NewObject(NonEntity, 0, 0, 1, 1)

	reg.Register(0, "bad", bad)
	quitterID, _ := reg.Register(0, "quitter", quitter)
	goodID, _ := reg.Register(0, "good", good)

	if n := h.frame(16); n != 1 {
		t.Errorf("drew %d objects, want 1", n)
	}
	draws := h.backend.Draws()
	if len(draws) != 1 || ObjectID(draws[0].ObjectID) != goodID {
		t.Errorf("only the well-behaved object should be drawn: %+v", draws)
	}
	if reg.Has(quitterID) {
		t.Errorf("object deleting itself mid-frame should be gone")
	}
}

func TestDrawCommandContents(t *testing.T) {
	h := newHarness(t, "", "hero")
	reg := h.sm.Registry
	cam := h.sm.Camera()
	cam.SetPosition(-100, 0)

	world := NewObject(NonEntity, 10, 20, 30, 40)
	anim, err := h.sm.AnimationSystem.FromSprites("hero", []string{"hero"}, 1, 1, false, false)
	if err != nil {
		t.Fatalf("FromSprites: %v", err)
	}
	world.SetAnimation(anim)
	world.SetFlip(true, false)

	hud := NewObject(HUDElement, 0, 0, 10, 10)
	flat := NewObject(NonEntity, 0, 0, 10, 10)
	flat.SetTextured(false)
	flat.SetColor(1, 0, 0, 1, metadata.CornerAll)

	worldID, _ := reg.Register(0, "world", world)
	hudID, _ := reg.Register(0, "hud", hud)
	flatID, _ := reg.Register(0, "flat", flat)

	h.frame(16)
	draws := map[ObjectID]metadata.DrawCommand{}
	for _, d := range h.backend.Draws() {
		draws[ObjectID(d.ObjectID)] = d
	}

	w := draws[worldID]
	if !w.Textured || w.Texture != anim.Current() {
		t.Errorf("world object should draw its animation keyframe")
	}
	if !w.View.ApproxEqual(cam.GetView()) {
		t.Errorf("camera-affected object should use the camera view")
	}
	if !w.Projection.ApproxEqual(cam.GetProjection()) {
		t.Errorf("projection should come from the camera")
	}
	center := w.Model.Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	if !center.ApproxEqual(mgl32.Vec4{25, 40, 0, 1}) {
		t.Errorf("model maps the origin to %v, want the object center", center)
	}
	if w.Vertices[metadata.CornerTopLeft].TexCoord[0] != 1 {
		t.Errorf("horizontal flip should reach the vertices")
	}

	if !draws[hudID].View.ApproxEqual(mgl32.Ident4()) {
		t.Errorf("HUD elements ignore the camera")
	}

	f := draws[flatID]
	if f.Textured {
		t.Errorf("untextured object must use the flat shader")
	}
	if f.Vertices[metadata.CornerBottomRight].Color != [4]float32{1, 0, 0, 1} {
		t.Errorf("corner colors should reach the vertices")
	}

	if h.backend.Bound() != metadata.InvalidTextureHandle {
		t.Errorf("texture must be unbound after the frame")
	}
}

func TestRegisterBindsPlaceholder(t *testing.T) {
	h := newHarness(t, "placeholder", "placeholder")
	reg := h.sm.Registry

	bare := NewObject(NonEntity, 0, 0, 1, 1)
	reg.Register(0, "bare", bare)
	if bare.Animation() == nil || !bare.Animation().IsLoaded() {
		t.Fatalf("placeholder animation should be bound")
	}

	broken, _ := h.sm.AnimationSystem.FromSprites("broken", []string{"missing"}, 1, 1, false, false)
	obj := NewObject(NonEntity, 0, 0, 1, 1)
	obj.SetAnimation(broken)
	reg.Register(0, "broken", obj)
	if obj.Animation() == broken {
		t.Errorf("unloaded animation should be replaced by the placeholder")
	}
	flat := NewObject(NonEntity, 0, 0, 1, 1)
	flat.SetTextured(false)
	reg.Register(0, "flat", flat)
	if flat.Animation() != nil {
		t.Errorf("untextured objects get no placeholder")
	}
	if h.sm.TextureSystem.ReferenceCount("placeholder", false) != 2 {
		t.Errorf("placeholder texture should be shared by the two textured objects")
	}
}

func TestHitboxOverlay(t *testing.T) {
	h := newHarness(t, "")
	reg := h.sm.Registry

	parentID, _ := reg.Register(1, "parent", NewObject(Entity, 5, 5, 10, 10))
	hbObj, _, err := reg.AttachHitBox(parentID, 0, 1, 1, 4, 4)
	if err != nil {
		t.Fatalf("AttachHitBox: %v", err)
	}

	if n := h.frame(16); n != 1 {
		t.Errorf("hitboxes are hidden by default: drew %d", n)
	}

	reg.SetShowHitboxes(true)
	reg.Get(parentID).X = 50
	h.frame(16)
	var outline *metadata.DrawCommand
	for _, d := range h.backend.Draws() {
		if ObjectID(d.ObjectID) == hbObj {
			d := d
			outline = &d
		}
	}
	if outline == nil {
		t.Fatalf("hitbox outline not drawn")
	}
	if outline.Topology != metadata.PrimitiveTopologyLines || outline.Textured {
		t.Errorf("hitbox should be an untextured outline")
	}
	if got := reg.Get(hbObj).X; got != 51 {
		t.Errorf("hitbox object X = %v, want 51", got)
	}
}

func TestObjectColorsAndGeometry(t *testing.T) {
	obj := NewObject(NonEntity, 0, 0, 10, 20)

	if err := obj.SetColor(0.5, 0.5, 0.5, 1, metadata.CornerTopRight); err != nil {
		t.Fatalf("SetColor: %v", err)
	}
	if obj.Color(metadata.CornerTopRight) != (metadata.Color{R: 0.5, G: 0.5, B: 0.5, A: 1}) {
		t.Errorf("corner color not stored")
	}
	if obj.Color(metadata.CornerTopLeft) != metadata.ColorWhite {
		t.Errorf("other corners must stay white")
	}
	if err := obj.SetColor(1, 1, 1, 1, metadata.Corner(9)); !errors.Is(err, core.ErrInvalidCorner) {
		t.Errorf("invalid corner: got %v", err)
	}
	if obj.Color(metadata.Corner(9)) != metadata.ColorWhite {
		t.Errorf("invalid corner reads as white")
	}
	obj.SetColor(2, -1, 0.25, 1, metadata.CornerAll)
	for i, c := range obj.Colors() {
		if c != (metadata.Color{R: 1, G: 0, B: 0.25, A: 1}) {
			t.Errorf("corner %d = %+v, channels should be clamped to [0, 1]", i, c)
		}
	}

	if !obj.IsTextured() {
		t.Errorf("objects start textured")
	}
	obj.SetFlip(true, true)
	if !obj.FlippedHorizontally() || !obj.FlippedVertically() {
		t.Errorf("SetFlip did not set both flags")
	}
	obj.ResetFlip()
	if obj.FlippedHorizontally() || obj.FlippedVertically() {
		t.Errorf("ResetFlip left a flag set")
	}

	obj.Scale(2)
	if obj.Width != 20 || obj.Height != 40 {
		t.Errorf("Scale: %vx%v", obj.Width, obj.Height)
	}
	obj.Scale(-1)
	if obj.Width != 20 {
		t.Errorf("non-positive scale must be ignored")
	}
	b := obj.Bounds()
	if b.Right() != 20 || b.Bottom() != 40 {
		t.Errorf("Bounds = %+v", b)
	}

	if NewObject(HUDElement, 0, 0, 1, 1).IsAffectedByCamera() {
		t.Errorf("HUD elements are not camera-affected")
	}
	if NewObject(NonEntity, 0, 0, 1, 1).Kinematics != nil {
		t.Errorf("only entities carry kinematics")
	}
	if k := NewObject(Entity, 0, 0, 1, 1).Kinematics; k == nil || k.Mass != 1 {
		t.Errorf("entities start with unit mass")
	}
}

func TestShutdownDeletesEverything(t *testing.T) {
	h := newHarness(t, "", "hero")
	reg := h.sm.Registry
	for _, name := range []string{"a", "b", "c"} {
		obj := NewObject(NonEntity, 0, 0, 1, 1)
		anim, _ := h.sm.AnimationSystem.FromSprites(name, []string{"hero"}, 1, 1, true, false)
		obj.SetAnimation(anim)
		reg.Register(0, name, obj)
	}
	if h.sm.TextureSystem.ReferenceCount("hero", false) != 3 {
		t.Fatalf("expected three references to hero")
	}
	if err := h.sm.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if reg.Count() != 0 || h.backend.LiveTextures() != 0 {
		t.Errorf("Shutdown left %d objects and %d textures", reg.Count(), h.backend.LiveTextures())
	}
}

func equalIDs(a, b []ObjectID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
