package systems

import (
	"fmt"
	"sort"
	"sync"

	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/math"
)

type HitBoxID uint32

type CollisionID uint32

const (
	InvalidHitBoxID    HitBoxID    = 0
	InvalidCollisionID CollisionID = 0
)

type PhysicsConfig struct {
	// Gravity is the downward acceleration, in units per ms², entities opt into.
	Gravity float32
}

// ObjectLookup finds registered objects without logging on a miss.
type ObjectLookup interface {
	Lookup(id ObjectID) (*Object, bool)
}

// HitBox is a collision volume. When Parent is set the bounds follow the
// parent's position, offset by RelX and RelY.
type HitBox struct {
	ID     HitBoxID
	Bounds math.Rect
	Parent ObjectID
	RelX   float32
	RelY   float32
}

// Collision is a standing pair of hitboxes whose overlap is recomputed by
// CheckCollisions.
type Collision struct {
	ID        CollisionID
	A         HitBoxID
	B         HitBoxID
	Colliding bool
}

type PhysicsSystem struct {
	config PhysicsConfig
	lookup ObjectLookup

	mutex        sync.RWMutex
	hitboxIDs    *core.IdentifierGenerator
	collisionIDs *core.IdentifierGenerator
	hitboxes     map[HitBoxID]*HitBox
	collisions   map[CollisionID]*Collision
}

func NewPhysicsSystem(config PhysicsConfig) *PhysicsSystem {
	return &PhysicsSystem{
		config:       config,
		hitboxIDs:    core.NewIdentifierGenerator(),
		collisionIDs: core.NewIdentifierGenerator(),
		hitboxes:     make(map[HitBoxID]*HitBox),
		collisions:   make(map[CollisionID]*Collision),
	}
}

// Bind sets where id-based operations find their objects.
func (ps *PhysicsSystem) Bind(lookup ObjectLookup) {
	ps.lookup = lookup
}

func (ps *PhysicsSystem) Shutdown() error {
	ps.mutex.Lock()
	defer ps.mutex.Unlock()
	ps.hitboxes = make(map[HitBoxID]*HitBox)
	ps.collisions = make(map[CollisionID]*Collision)
	return nil
}

func (ps *PhysicsSystem) SetGravity(gravity float32) {
	ps.config.Gravity = gravity
}

func (ps *PhysicsSystem) Gravity() float32 {
	return ps.config.Gravity
}

// IsOverlapping is the strict AABB test on two objects' bounds; touching
// edges do not overlap.
func (ps *PhysicsSystem) IsOverlapping(a, b *Object) bool {
	return a.Bounds().Overlaps(b.Bounds())
}

func (ps *PhysicsSystem) entity(id ObjectID) (*Object, error) {
	if ps.lookup == nil {
		return nil, fmt.Errorf("physics has no object lookup: %w", core.ErrNotInitialized)
	}
	obj, ok := ps.lookup.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("object %d: %w", id, core.ErrLookupMiss)
	}
	if obj.Kinematics == nil {
		return nil, fmt.Errorf("object %d is a %s, not an entity: %w", id, obj.category, core.ErrInvalidIndex)
	}
	return obj, nil
}

// Move integrates velocity into position: x += vx*dt, y += vy*dt.
func (ps *PhysicsSystem) Move(id ObjectID, dt float32) error {
	obj, err := ps.entity(id)
	if err != nil {
		return err
	}
	MoveObject(obj, dt)
	return nil
}

// Accelerate integrates acceleration into velocity: vx += ax*dt, vy += ay*dt.
func (ps *PhysicsSystem) Accelerate(id ObjectID, dt float32) error {
	obj, err := ps.entity(id)
	if err != nil {
		return err
	}
	AccelerateObject(obj, dt)
	return nil
}

// MoveWithAngle sets the velocity from speed along the object's angle, then
// moves.
func (ps *PhysicsSystem) MoveWithAngle(id ObjectID, dt, speed float32) error {
	obj, err := ps.entity(id)
	if err != nil {
		return err
	}
	MoveObjectWithAngle(obj, dt, speed)
	return nil
}

// Integrate accelerates then moves.
func (ps *PhysicsSystem) Integrate(id ObjectID, dt float32) error {
	obj, err := ps.entity(id)
	if err != nil {
		return err
	}
	IntegrateObject(obj, dt)
	return nil
}

func MoveObject(obj *Object, dt float32) {
	if obj.Kinematics == nil {
		return
	}
	obj.X += obj.Kinematics.VelocityX * dt
	obj.Y += obj.Kinematics.VelocityY * dt
}

func AccelerateObject(obj *Object, dt float32) {
	if obj.Kinematics == nil {
		return
	}
	obj.Kinematics.VelocityX += obj.Kinematics.AccelerationX * dt
	obj.Kinematics.VelocityY += obj.Kinematics.AccelerationY * dt
}

func MoveObjectWithAngle(obj *Object, dt, speed float32) {
	if obj.Kinematics == nil {
		return
	}
	rad := math.DegToRad(obj.Angle)
	obj.Kinematics.VelocityX = speed * math.Cos(rad)
	obj.Kinematics.VelocityY = speed * math.Sin(rad)
	MoveObject(obj, dt)
}

func IntegrateObject(obj *Object, dt float32) {
	AccelerateObject(obj, dt)
	MoveObject(obj, dt)
}

// CreateHitBox registers a free-standing hitbox.
func (ps *PhysicsSystem) CreateHitBox(bounds math.Rect) HitBoxID {
	ps.mutex.Lock()
	defer ps.mutex.Unlock()

	id := HitBoxID(ps.hitboxIDs.AquireNewID())
	ps.hitboxes[id] = &HitBox{ID: id, Bounds: bounds}
	return id
}

// CreateAttachedHitBox registers a hitbox that follows parent.
func (ps *PhysicsSystem) CreateAttachedHitBox(parent *Object, relX, relY, width, height float32) (HitBoxID, error) {
	if parent == nil || parent.IsEmpty() || parent.ID() == InvalidObjectID {
		return InvalidHitBoxID, fmt.Errorf("hitbox parent is not registered: %w", core.ErrInvalidHitBox)
	}
	ps.mutex.Lock()
	defer ps.mutex.Unlock()

	id := HitBoxID(ps.hitboxIDs.AquireNewID())
	ps.hitboxes[id] = &HitBox{
		ID:     id,
		Bounds: math.NewRect(parent.X+relX, parent.Y+relY, width, height),
		Parent: parent.ID(),
		RelX:   relX,
		RelY:   relY,
	}
	return id, nil
}

// HitBox returns a copy of the hitbox.
func (ps *PhysicsSystem) HitBox(id HitBoxID) (HitBox, bool) {
	ps.mutex.RLock()
	defer ps.mutex.RUnlock()
	hb, ok := ps.hitboxes[id]
	if !ok {
		return HitBox{}, false
	}
	return *hb, true
}

// SetHitBoxBounds moves a free-standing hitbox.
func (ps *PhysicsSystem) SetHitBoxBounds(id HitBoxID, bounds math.Rect) error {
	ps.mutex.Lock()
	defer ps.mutex.Unlock()
	hb, ok := ps.hitboxes[id]
	if !ok {
		return fmt.Errorf("hitbox %d: %w", id, core.ErrInvalidHitBox)
	}
	hb.Bounds = bounds
	return nil
}

func (ps *PhysicsSystem) HitBoxCount() int {
	ps.mutex.RLock()
	defer ps.mutex.RUnlock()
	return len(ps.hitboxes)
}

// ListenCollisions starts tracking the overlap of a and b.
func (ps *PhysicsSystem) ListenCollisions(a, b HitBoxID) (CollisionID, error) {
	ps.mutex.Lock()
	defer ps.mutex.Unlock()

	for _, hb := range []HitBoxID{a, b} {
		if _, ok := ps.hitboxes[hb]; !ok {
			return InvalidCollisionID, fmt.Errorf("hitbox %d: %w", hb, core.ErrInvalidHitBox)
		}
	}
	id := CollisionID(ps.collisionIDs.AquireNewID())
	ps.collisions[id] = &Collision{ID: id, A: a, B: b}
	return id, nil
}

// CheckCollisions syncs attached hitboxes with their parents and recomputes
// every listened pair.
func (ps *PhysicsSystem) CheckCollisions() {
	ps.mutex.Lock()
	defer ps.mutex.Unlock()

	ps.syncAttachedLocked()
	for _, c := range ps.collisions {
		a, b := ps.hitboxes[c.A], ps.hitboxes[c.B]
		c.Colliding = a != nil && b != nil && a.Bounds.Overlaps(b.Bounds)
	}
}

// SyncAttached moves attached hitboxes to their parents' current position.
func (ps *PhysicsSystem) SyncAttached() {
	ps.mutex.Lock()
	defer ps.mutex.Unlock()
	ps.syncAttachedLocked()
}

// SyncHitBox moves one attached hitbox to its parent and returns a copy.
func (ps *PhysicsSystem) SyncHitBox(id HitBoxID) (HitBox, bool) {
	ps.mutex.Lock()
	defer ps.mutex.Unlock()
	hb, ok := ps.hitboxes[id]
	if !ok {
		return HitBox{}, false
	}
	ps.syncLocked(hb)
	return *hb, true
}

func (ps *PhysicsSystem) syncLocked(hb *HitBox) {
	if ps.lookup == nil || hb.Parent == InvalidObjectID {
		return
	}
	if parent, ok := ps.lookup.Lookup(hb.Parent); ok {
		hb.Bounds.X = parent.X + hb.RelX
		hb.Bounds.Y = parent.Y + hb.RelY
	}
}

func (ps *PhysicsSystem) syncAttachedLocked() {
	for _, hb := range ps.hitboxes {
		ps.syncLocked(hb)
	}
}

// IsColliding reports the overlap computed by the last CheckCollisions.
func (ps *PhysicsSystem) IsColliding(id CollisionID) bool {
	ps.mutex.RLock()
	defer ps.mutex.RUnlock()
	c, ok := ps.collisions[id]
	if !ok {
		core.LogWarn("collision %d does not exist", id)
		return false
	}
	return c.Colliding
}

func (ps *PhysicsSystem) HasCollision(id CollisionID) bool {
	ps.mutex.RLock()
	defer ps.mutex.RUnlock()
	_, ok := ps.collisions[id]
	return ok
}

func (ps *PhysicsSystem) StopListening(id CollisionID) {
	ps.mutex.Lock()
	defer ps.mutex.Unlock()
	delete(ps.collisions, id)
}

// DestroyHitBox removes the hitbox and every collision pair using it.
func (ps *PhysicsSystem) DestroyHitBox(id HitBoxID) {
	ps.mutex.Lock()
	defer ps.mutex.Unlock()
	ps.destroyHitBoxLocked(id)
}

func (ps *PhysicsSystem) destroyHitBoxLocked(id HitBoxID) {
	if _, ok := ps.hitboxes[id]; !ok {
		return
	}
	delete(ps.hitboxes, id)
	for cid, c := range ps.collisions {
		if c.A == id || c.B == id {
			delete(ps.collisions, cid)
		}
	}
}

// DestroyHitBoxesOf removes every hitbox attached to parent and returns
// their ids in ascending order.
func (ps *PhysicsSystem) DestroyHitBoxesOf(parent ObjectID) []HitBoxID {
	ps.mutex.Lock()
	defer ps.mutex.Unlock()

	var removed []HitBoxID
	for id, hb := range ps.hitboxes {
		if hb.Parent == parent {
			removed = append(removed, id)
		}
	}
	sort.Slice(removed, func(i, j int) bool { return removed[i] < removed[j] })
	for _, id := range removed {
		ps.destroyHitBoxLocked(id)
	}
	return removed
}
