package web

// Product is one row of the inventory page. Description is Markdown.
type Product struct {
	ID          int
	Name        string
	PriceCents  int
	Description string
}

// Catalog is the fixed product list every account sees.
func Catalog() []Product {
	return []Product{
		{1, "Sauce Labs Backpack", 2999, "Carry **all the things** with the sleek, streamlined Sly Pack. Unequaled laptop and tablet protection."},
		{2, "Sauce Labs Bike Light", 999, "A red light isn't the desired state in testing but it sure helps when riding your bike at night. *Water-resistant* with 3 lighting modes, 1 AAA battery included."},
		{3, "Sauce Labs Bolt T-Shirt", 1599, "Get your testing superhero on with the Sauce Labs bolt T-shirt. From American Apparel, 100% ringspun combed cotton."},
		{4, "Sauce Labs Fleece Jacket", 4999, "It's not every day that you come across a midweight quarter-zip fleece jacket capable of handling everything from a relaxing day outdoors to a busy day at the office."},
		{5, "Sauce Labs Onesie", 799, "Rib snap infant onesie for the junior automation engineer in development. Reinforced 3-snap bottom closure, two-needle hemmed sleeved and bottom won't unravel."},
		{6, "Test.allTheThings() T-Shirt (Red)", 1599, "This classic Sauce Labs t-shirt is perfect to wear when cozying up to your keyboard to automate a few tests. Super-soft and comfy `ringspun` combed cotton."},
	}
}
