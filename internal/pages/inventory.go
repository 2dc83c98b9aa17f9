package pages

import (
	"fmt"

	"github.com/playwright-community/playwright-go"
)

// Test-identifier attribute values on the inventory screen.
const (
	TestIDInventoryList = "inventory-list"
	TestIDInventoryItem = "inventory-item"
	TestIDLogout        = "logout"
)

// InventoryPage is the authenticated landing screen.
type InventoryPage struct {
	page      playwright.Page
	timeoutMS float64

	List         playwright.Locator
	Items        playwright.Locator
	LogoutButton playwright.Locator
}

// NewInventoryPage binds the inventory locators to page.
func NewInventoryPage(page playwright.Page) *InventoryPage {
	return &InventoryPage{
		page:         page,
		timeoutMS:    DefaultTimeoutMS,
		List:         page.Locator(TestIDSelector(TestIDInventoryList)),
		Items:        page.Locator(TestIDSelector(TestIDInventoryItem)),
		LogoutButton: page.Locator(TestIDSelector(TestIDLogout)),
	}
}

// WaitForList blocks until the product list is visible.
func (p *InventoryPage) WaitForList() error {
	err := p.List.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(p.timeoutMS),
	})
	if err != nil {
		return fmt.Errorf("inventory list not visible: %w", err)
	}
	return nil
}

// ItemCount returns the number of rendered products.
func (p *InventoryPage) ItemCount() (int, error) {
	n, err := p.Items.Count()
	if err != nil {
		return 0, fmt.Errorf("count inventory items: %w", err)
	}
	return n, nil
}

// Logout submits the logout control.
func (p *InventoryPage) Logout() error {
	if err := p.LogoutButton.Click(); err != nil {
		return fmt.Errorf("click logout: %w", err)
	}
	return nil
}
