package wishlist

import "github.com/pawmart/storefront/services/storefront/internal/domain"

// State is the wishlist as the UI sees it.
type State struct {
	Items     []domain.WishlistItem
	IsLoading bool
}

// ActionType names a state transition.
type ActionType string

const (
	ActionSetItems      ActionType = "SET_ITEMS"
	ActionAddItem       ActionType = "ADD_ITEM"
	ActionRemoveItem    ActionType = "REMOVE_ITEM"
	ActionClearWishlist ActionType = "CLEAR_WISHLIST"
	ActionSetLoading    ActionType = "SET_LOADING"
)

// Action is a transition request. Only the fields relevant to Type are read.
type Action struct {
	Type      ActionType
	Items     []domain.WishlistItem
	Item      domain.WishlistItem
	ProductID string
	Loading   bool
}

// SetItems replaces the whole item list.
func SetItems(items []domain.WishlistItem) Action {
	return Action{Type: ActionSetItems, Items: items}
}

// AddItem appends item unless its product is already saved.
func AddItem(item domain.WishlistItem) Action {
	return Action{Type: ActionAddItem, Item: item}
}

// RemoveItem drops the entry for productID.
func RemoveItem(productID string) Action {
	return Action{Type: ActionRemoveItem, ProductID: productID}
}

// ClearWishlist empties the item list.
func ClearWishlist() Action {
	return Action{Type: ActionClearWishlist}
}

// SetLoading marks a sync as running or finished.
func SetLoading(loading bool) Action {
	return Action{Type: ActionSetLoading, Loading: loading}
}

// Reduce returns the state after applying a. It never modifies s; unknown
// actions return s unchanged.
func Reduce(s State, a Action) State {
	switch a.Type {
	case ActionSetItems:
		return State{Items: cloneItems(a.Items), IsLoading: s.IsLoading}

	case ActionAddItem:
		if domain.FindWishlistItem(s.Items, a.Item.ProductID) >= 0 {
			return s
		}
		items := make([]domain.WishlistItem, 0, len(s.Items)+1)
		items = append(items, s.Items...)
		items = append(items, a.Item)
		return State{Items: items, IsLoading: s.IsLoading}

	case ActionRemoveItem:
		items := make([]domain.WishlistItem, 0, len(s.Items))
		for _, item := range s.Items {
			if item.ProductID != a.ProductID {
				items = append(items, item)
			}
		}
		return State{Items: items, IsLoading: s.IsLoading}

	case ActionClearWishlist:
		return State{IsLoading: s.IsLoading}

	case ActionSetLoading:
		return State{Items: s.Items, IsLoading: a.Loading}

	default:
		return s
	}
}

// changesItems reports whether a can alter the item list, and so needs a
// snapshot write.
func changesItems(a Action) bool {
	return a.Type != ActionSetLoading
}

func cloneItems(items []domain.WishlistItem) []domain.WishlistItem {
	if len(items) == 0 {
		return nil
	}
	dup := make([]domain.WishlistItem, len(items))
	copy(dup, items)
	return dup
}
