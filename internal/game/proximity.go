/*
Package game
File: proximity.go
Description:
    Matches the helicopter's position against the shop and the delivery
    zones of active orders. A tap point only confirms the zone the
    helicopter is already in.
*/

package game

// Resolver checks positions against hot-zones using the world view's metric.
type Resolver struct {
	world          WorldView
	shop           Coordinate
	pickupRadius   float64
	deliveryRadius float64
}

func NewResolver(world WorldView, shop Coordinate, pickupRadius, deliveryRadius float64) *Resolver {
	return &Resolver{world: world, shop: shop, pickupRadius: pickupRadius, deliveryRadius: deliveryRadius}
}

// InPickupZone reports whether all points are inside the shop circle.
func (r *Resolver) InPickupZone(pts ...Coordinate) bool {
	for _, p := range pts {
		if r.world.Distance(p, r.shop) >= r.pickupRadius {
			return false
		}
	}
	return len(pts) > 0
}

func (r *Resolver) inDeliveryZone(o *ActiveOrder, carrier, tap Coordinate) bool {
	return r.world.Distance(carrier, o.Def.Location) < r.deliveryRadius &&
		r.world.Distance(tap, o.Def.Location) < r.deliveryRadius
}

// DeliveryMatch is the outcome of a delivery lookup.
type DeliveryMatch struct {
	Order     *ActiveOrder // Order to deliver to; nil if none qualifies
	InZone    bool         // Carrier and tap share at least one active order's zone
	Shortfall int          // Missing units for Blocked when Order is nil
	Blocked   *ActiveOrder // Newest in-zone order the cargo could not cover
}

// MatchDelivery scans active orders newest-first and picks the first order
// whose zone holds both the carrier and the tap point and which the carried
// cargo covers. active must be in acceptance order.
func (r *Resolver) MatchDelivery(carrier, tap Coordinate, active []*ActiveOrder, carried int) DeliveryMatch {
	var m DeliveryMatch
	for i := len(active) - 1; i >= 0; i-- {
		o := active[i]
		if !o.active {
			continue
		}
		if !r.inDeliveryZone(o, carrier, tap) {
			continue
		}
		m.InZone = true
		if carried >= o.Def.Pizzas {
			m.Order = o
			m.Shortfall, m.Blocked = 0, nil
			return m
		}
		if m.Blocked == nil {
			m.Blocked = o
			m.Shortfall = o.Def.Pizzas - carried
		}
	}
	return m
}
