package entity

// Models lists every persisted model, in dependency order.
func Models() []any {
	return []any{
		(*Table)(nil),
		(*Order)(nil),
		(*OrderStatusLog)(nil),
		(*Reservation)(nil),
		(*MenuCategory)(nil),
		(*MenuItem)(nil),
		(*InventoryItem)(nil),
		(*StaffProfile)(nil),
		(*StaffRole)(nil),
	}
}
