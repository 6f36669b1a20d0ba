package domain

// Category identifies one of the four venue categories served by the site.
type Category int

const (
	CategoryDogrun   Category = 1
	CategoryDogcafe  Category = 2
	CategoryPetshop  Category = 3
	CategoryHospital Category = 4
)

// CategoryInfo carries routing and display metadata for a category.
type CategoryInfo struct {
	Code     Category
	Slug     string
	Label    string
	TagTypes []int
}

// Categories lists the four venue categories in display order.
// Tag types partition the shared /tags collection per category;
// dogrun search uses two tag groups (conditions and facilities).
var Categories = []CategoryInfo{
	{Code: CategoryDogrun, Slug: "dogrun", Label: "ドッグラン", TagTypes: []int{1, 2}},
	{Code: CategoryDogcafe, Slug: "dogcafe", Label: "ドッグカフェ", TagTypes: []int{3}},
	{Code: CategoryPetshop, Slug: "petshop", Label: "ペットショップ", TagTypes: []int{4}},
	{Code: CategoryHospital, Slug: "hospital", Label: "動物病院", TagTypes: []int{5}},
}

// CategoryBySlug resolves a URL slug to its category.
func CategoryBySlug(slug string) (CategoryInfo, bool) {
	for _, c := range Categories {
		if c.Slug == slug {
			return c, true
		}
	}
	return CategoryInfo{}, false
}

// CategoryByCode resolves a numeric category code.
func CategoryByCode(code Category) (CategoryInfo, bool) {
	for _, c := range Categories {
		if c.Code == code {
			return c, true
		}
	}
	return CategoryInfo{}, false
}

// Store is a venue record as returned by the remote API.
// Immutable once fetched for a page view; re-fetched on navigation.
type Store struct {
	ID           int      `json:"store_id"`
	Name         string   `json:"store_name"`
	Description  string   `json:"store_description"`
	Address      string   `json:"store_address"`
	OpeningHours string   `json:"store_opening_hours"`
	PhoneNumber  string   `json:"store_phone_number"`
	URL          string   `json:"store_url"`
	Images       []string `json:"store_img"`
	Tags         []string `json:"tags,omitempty"`
	Reviews      []Review `json:"reviews,omitempty"`
}

// Review is a rating plus free-text comment for a store.
// Created by submission; never edited or deleted by this client.
type Review struct {
	ID        int    `json:"id"`
	StoreID   int    `json:"store_id"`
	StoreName string `json:"store_name,omitempty"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// Favorite is a (user, store) pair with denormalized display fields.
// StoreType is the category code as a string; the upstream key for the
// store URL is literally "store_URL".
type Favorite struct {
	ID           int    `json:"id"`
	UserID       int    `json:"user_id"`
	StoreID      int    `json:"store_id"`
	StoreName    string `json:"store_name"`
	StoreAddress string `json:"store_address"`
	StoreURL     string `json:"store_URL"`
	StoreImage   string `json:"store_img"`
	StoreType    string `json:"store_type"`
}

// Tag is a search label; TagType scopes it to a category's filter groups.
type Tag struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	TagType int    `json:"tag_type"`
}

// Prefecture is a region entry for the region list pages.
type Prefecture struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Region string `json:"region"`
}

// User is the account profile returned by the remote auth endpoints.
type User struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
