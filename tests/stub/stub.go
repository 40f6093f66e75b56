// Package stub is an in-process double of the inventory backend, close
// enough on the wire (FastAPI-style error bodies, decimal-string prices,
// bearer JWT auth with rotating refresh tokens) for end-to-end client
// tests.
package stub

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	libjwt "stockpile/internal/lib/jwt"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/patrickmn/go-cache"
	"golang.org/x/crypto/bcrypt"
)

const (
	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour
)

type user struct {
	ID           string
	Email        string
	PasswordHash []byte
	PlanCode     string
	Username     string
	AvatarURL    string
	Address      string
	Country      string
	PhoneNumber  string
	LastLogin    time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type product struct {
	ID             int64
	OwnerID        string
	Name           string
	Description    string
	AvailableStock int
	Price          float64
	Cost           float64
	Platform       string
	ImgURL         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Inactive       bool
}

// Backend holds all stub state. Refresh tokens live in a TTL cache and are
// single-use: a successful refresh deletes the old token and stores the
// new one.
type Backend struct {
	e      *echo.Echo
	secret []byte

	mu       sync.Mutex
	users    map[string]*user // by email
	byID     map[string]*user
	products map[int64]*product
	nextID   int64

	refreshTokens *cache.Cache

	refreshCalls atomic.Int64
	userFetches  atomic.Int64
}

type customValidator struct {
	validator *validator.Validate
}

func (cv *customValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func New(secret []byte) *Backend {
	b := &Backend{
		secret:        secret,
		users:         map[string]*user{},
		byID:          map[string]*user{},
		products:      map[int64]*product{},
		refreshTokens: cache.New(RefreshTokenTTL, time.Minute),
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = &customValidator{validator: validator.New()}

	e.POST("/auth/login", b.login)
	e.POST("/auth/register", b.register)
	e.POST("/auth/refresh", b.refresh)

	authed := e.Group("", echojwt.WithConfig(echojwt.Config{
		SigningKey: b.secret,
	}))

	authed.GET("/user/user", b.currentUser)
	authed.PATCH("/user/update-user", b.updateProfile)
	authed.PUT("/user/change-email/", b.changeEmail)
	authed.PUT("/user/change-password", b.changePassword)

	authed.GET("/product/my-products", b.myProducts)
	authed.POST("/product/add-product", b.addProduct)
	authed.PATCH("/product/update-product/:id", b.updateProduct)
	authed.PUT("/product/inactive-product/:id", b.inactiveProduct)
	authed.DELETE("/product/delete-product/:id", b.deleteProduct)
	authed.GET("/product/dashboard", b.dashboard)

	b.e = e

	return b
}

// Handler exposes the stub as an http.Handler for httptest.
func (b *Backend) Handler() http.Handler {
	return b.e
}

// RefreshCalls reports how many refresh requests reached the network.
func (b *Backend) RefreshCalls() int64 {
	return b.refreshCalls.Load()
}

// UserFetches reports how many times /user/user was hit.
func (b *Backend) UserFetches() int64 {
	return b.userFetches.Load()
}

// SeedUser registers a user directly, bypassing the API.
func (b *Backend) SeedUser(email, password string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}

	now := time.Now().UTC()
	u := &user{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		PlanCode:     "free",
		LastLogin:    now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	b.mu.Lock()
	b.users[email] = u
	b.byID[u.ID] = u
	b.mu.Unlock()

	return u.ID
}

// IssueTokens mints a pair for a seeded user with a chosen access TTL,
// registering the refresh token as valid. Lets tests start from an
// already-expired access token.
func (b *Backend) IssueTokens(userID string, accessTTL time.Duration) (access, refresh string) {
	b.mu.Lock()
	u, ok := b.byID[userID]
	b.mu.Unlock()
	if !ok {
		panic("stub: unknown user " + userID)
	}

	access, err := libjwt.NewToken(u.ID, u.Email, accessTTL, b.secret)
	if err != nil {
		panic(err)
	}

	refresh, err = libjwt.NewToken(u.ID, u.Email, RefreshTokenTTL, b.secret)
	if err != nil {
		panic(err)
	}

	b.refreshTokens.Set(refresh, u.ID, RefreshTokenTTL)

	return access, refresh
}

// --- auth handlers ---

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (b *Backend) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return detailError(c, http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(req); err != nil {
		return validationError(c, err)
	}

	b.mu.Lock()
	u, ok := b.users[req.Email]
	b.mu.Unlock()

	if !ok || bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(req.Password)) != nil {
		return detailError(c, http.StatusUnauthorized, "Incorrect email or password")
	}

	b.mu.Lock()
	u.LastLogin = time.Now().UTC()
	b.mu.Unlock()

	access, refresh := b.IssueTokens(u.ID, AccessTokenTTL)

	return c.JSON(http.StatusOK, map[string]string{
		"access_token":  access,
		"refresh_token": refresh,
		"token_type":    "Bearer",
	})
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	PlanCode string `json:"plan_code" validate:"required,oneof=free"`
	Password string `json:"password" validate:"required,min=6"`
}

func (b *Backend) register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return detailError(c, http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(req); err != nil {
		return validationError(c, err)
	}

	b.mu.Lock()
	_, exists := b.users[req.Email]
	b.mu.Unlock()
	if exists {
		return detailError(c, http.StatusBadRequest, "Email already in use!")
	}

	b.SeedUser(req.Email, req.Password)

	b.mu.Lock()
	u := b.users[req.Email]
	b.mu.Unlock()

	return c.JSON(http.StatusOK, accountJSON(u))
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (b *Backend) refresh(c echo.Context) error {
	b.refreshCalls.Add(1)

	var req refreshRequest
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return detailError(c, http.StatusBadRequest, "Invalid request format")
	}

	userID, ok := b.refreshTokens.Get(req.RefreshToken)
	if !ok {
		return detailError(c, http.StatusUnauthorized, "Invalid refresh token")
	}

	// rotation: the presented token is spent even if issuing fails
	b.refreshTokens.Delete(req.RefreshToken)

	access, refresh := b.IssueTokens(userID.(string), AccessTokenTTL)

	return c.JSON(http.StatusOK, map[string]string{
		"access_token":  access,
		"refresh_token": refresh,
		"token_type":    "Bearer",
	})
}

// --- user handlers ---

func (b *Backend) sessionUser(c echo.Context) (*user, error) {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized)
	}

	uid, _ := claims["uid"].(string)

	b.mu.Lock()
	u, ok := b.byID[uid]
	b.mu.Unlock()
	if !ok {
		return nil, detailError(c, http.StatusBadRequest, "No user has been found!")
	}

	return u, nil
}

func (b *Backend) currentUser(c echo.Context) error {
	b.userFetches.Add(1)

	u, err := b.sessionUser(c)
	if err != nil {
		return err
	}

	out := map[string]any{
		"email":      u.Email,
		"last_login": u.LastLogin.Format(time.RFC3339),
	}
	if u.Username != "" {
		out["username"] = u.Username
	}
	if u.AvatarURL != "" {
		out["avatar"] = u.AvatarURL
	}

	return c.JSON(http.StatusOK, out)
}

type profileRequest struct {
	Username    string `json:"username"`
	AvatarURL   string `json:"avatar_url"`
	Address     string `json:"address"`
	Country     string `json:"country"`
	PhoneNumber string `json:"phone_number"`
}

func (b *Backend) updateProfile(c echo.Context) error {
	u, err := b.sessionUser(c)
	if err != nil {
		return err
	}

	var req profileRequest
	if err := c.Bind(&req); err != nil {
		return detailError(c, http.StatusBadRequest, "Invalid request format")
	}

	if req == (profileRequest{}) {
		return detailError(c, http.StatusBadRequest, "No changes provided!")
	}

	b.mu.Lock()
	if req.Username != "" {
		u.Username = req.Username
	}
	if req.AvatarURL != "" {
		u.AvatarURL = req.AvatarURL
	}
	if req.Address != "" {
		u.Address = req.Address
	}
	if req.Country != "" {
		u.Country = req.Country
	}
	if req.PhoneNumber != "" {
		u.PhoneNumber = req.PhoneNumber
	}
	u.UpdatedAt = time.Now().UTC()
	b.mu.Unlock()

	return c.JSON(http.StatusOK, map[string]any{
		"username":     u.Username,
		"avatar_url":   u.AvatarURL,
		"address":      u.Address,
		"country":      u.Country,
		"phone_number": u.PhoneNumber,
	})
}

type emailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (b *Backend) changeEmail(c echo.Context) error {
	u, err := b.sessionUser(c)
	if err != nil {
		return err
	}

	var req emailRequest
	if err := c.Bind(&req); err != nil {
		return detailError(c, http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(req); err != nil {
		return validationError(c, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if u.Email == req.Email {
		return detailError(c, http.StatusBadRequest, "Cant update your email to the same email!")
	}
	if _, taken := b.users[req.Email]; taken {
		return detailError(c, http.StatusBadRequest, "Email already in use!")
	}

	delete(b.users, u.Email)
	u.Email = req.Email
	u.UpdatedAt = time.Now().UTC()
	b.users[u.Email] = u

	return c.JSON(http.StatusOK, accountJSON(u))
}

type passwordRequest struct {
	Password    string `json:"password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

func (b *Backend) changePassword(c echo.Context) error {
	u, err := b.sessionUser(c)
	if err != nil {
		return err
	}

	var req passwordRequest
	if err := c.Bind(&req); err != nil {
		return detailError(c, http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(req); err != nil {
		return validationError(c, err)
	}

	if req.Password == req.NewPassword {
		return detailError(c, http.StatusBadRequest, "Passwords cant be the same!")
	}
	if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(req.Password)) != nil {
		return detailError(c, http.StatusBadRequest, "The password doesnt correspond to the old one!")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.MinCost)
	if err != nil {
		return detailError(c, http.StatusInternalServerError, "hash failure")
	}

	b.mu.Lock()
	u.PasswordHash = hash
	u.UpdatedAt = time.Now().UTC()
	b.mu.Unlock()

	return c.JSON(http.StatusOK, accountJSON(u))
}

// --- product handlers ---

type productRequest struct {
	Name           *string  `json:"name"`
	Description    *string  `json:"description"`
	AvailableStock *int     `json:"available_stock"`
	Price          *float64 `json:"price"`
	Cost           *float64 `json:"cost"`
	Platform       *string  `json:"platform"`
	ImgURL         *string  `json:"img_url"`
}

func (b *Backend) myProducts(c echo.Context) error {
	u, err := b.sessionUser(c)
	if err != nil {
		return err
	}

	order := c.QueryParam("order")
	if order != "asc" {
		order = "desc"
	}

	b.mu.Lock()
	owned := make([]*product, 0)
	for _, p := range b.products {
		if p.OwnerID == u.ID {
			owned = append(owned, p)
		}
	}
	b.mu.Unlock()

	sort.Slice(owned, func(i, j int) bool {
		if order == "asc" {
			return owned[i].ID < owned[j].ID
		}
		return owned[i].ID > owned[j].ID
	})

	out := make([]map[string]any, 0, len(owned))
	for _, p := range owned {
		out = append(out, productJSON(p))
	}

	return c.JSON(http.StatusOK, out)
}

func (b *Backend) addProduct(c echo.Context) error {
	u, err := b.sessionUser(c)
	if err != nil {
		return err
	}

	var req productRequest
	if err := c.Bind(&req); err != nil {
		return detailError(c, http.StatusBadRequest, "Invalid request format")
	}
	if req.Name == nil || *req.Name == "" {
		return validationMessage(c, "field required")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, p := range b.products {
		if p.OwnerID == u.ID && p.Name == *req.Name {
			return detailError(c, http.StatusBadRequest, "You already have this product!")
		}
	}

	b.nextID++
	now := time.Now().UTC()
	p := &product{
		ID:        b.nextID,
		OwnerID:   u.ID,
		Name:      *req.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyProductFields(p, req)
	b.products[p.ID] = p

	return c.JSON(http.StatusOK, productJSON(p))
}

func (b *Backend) updateProduct(c echo.Context) error {
	u, err := b.sessionUser(c)
	if err != nil {
		return err
	}

	p, httpErr := b.ownedProduct(c, u)
	if httpErr != nil {
		return httpErr
	}

	var req productRequest
	if err := c.Bind(&req); err != nil {
		return detailError(c, http.StatusBadRequest, "Invalid request format")
	}

	b.mu.Lock()
	applyProductFields(p, req)
	p.UpdatedAt = time.Now().UTC()
	b.mu.Unlock()

	return c.JSON(http.StatusOK, productJSON(p))
}

func (b *Backend) inactiveProduct(c echo.Context) error {
	u, err := b.sessionUser(c)
	if err != nil {
		return err
	}

	p, httpErr := b.ownedProduct(c, u)
	if httpErr != nil {
		return httpErr
	}

	b.mu.Lock()
	p.Inactive = true
	p.UpdatedAt = time.Now().UTC()
	b.mu.Unlock()

	return c.JSON(http.StatusOK, productJSON(p))
}

func (b *Backend) deleteProduct(c echo.Context) error {
	u, err := b.sessionUser(c)
	if err != nil {
		return err
	}

	p, httpErr := b.ownedProduct(c, u)
	if httpErr != nil {
		return httpErr
	}

	b.mu.Lock()
	delete(b.products, p.ID)
	b.mu.Unlock()

	return c.JSON(http.StatusOK, map[string]string{"detail": "Product deleted!"})
}

func (b *Backend) dashboard(c echo.Context) error {
	u, err := b.sessionUser(c)
	if err != nil {
		return err
	}

	threshold, err := strconv.Atoi(c.QueryParam("low_stock_threshold"))
	if err != nil {
		threshold = 5
	}

	b.mu.Lock()
	owned := make([]*product, 0)
	for _, p := range b.products {
		if p.OwnerID == u.ID && !p.Inactive {
			owned = append(owned, p)
		}
	}
	b.mu.Unlock()

	if len(owned) == 0 {
		return c.JSON(http.StatusOK, map[string]string{"No products": "You dont have any products yet!"})
	}

	var availableStock int
	var totalPrice, stockCost, totalProfit float64
	losing := make([]map[string]any, 0)
	low := make([]map[string]any, 0)
	profits := map[string]map[string]float64{}

	for _, p := range owned {
		availableStock += p.AvailableStock
		totalPrice += p.Price * float64(p.AvailableStock)
		stockCost += p.Cost * float64(p.AvailableStock)
		totalProfit += (p.Price - p.Cost) * float64(p.AvailableStock)

		if p.Price < p.Cost {
			losing = append(losing, map[string]any{
				"name":                 p.Name,
				"loss on each product": p.Cost - p.Price,
			})
		}

		if p.AvailableStock <= threshold {
			low = append(low, map[string]any{
				"name":            p.Name,
				"stock available": p.AvailableStock,
			})
		}

		profits[p.Name] = map[string]float64{"profit": (p.Price - p.Cost) * float64(p.AvailableStock)}
	}

	lowStock := map[string]any{"You need more stock of ": low}
	if len(low) == 0 {
		lowStock = map[string]any{"detail": "Your stock is all good"}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"products_available": map[string]any{
			"available_stock": availableStock,
			"total_price":     totalPrice,
		},
		"products_profit": map[string]any{
			"stock cost":      stockCost,
			"profit":          totalProfit,
			"losing_products": losing,
		},
		"low_stock":      lowStock,
		"products_top":   profits,
		"products_worst": profits,
	})
}

// --- helpers ---

func (b *Backend) ownedProduct(c echo.Context, u *user) (*product, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return nil, detailError(c, http.StatusBadRequest, "Invalid product id")
	}

	b.mu.Lock()
	p, ok := b.products[id]
	b.mu.Unlock()

	if !ok || p.OwnerID != u.ID {
		return nil, detailError(c, http.StatusNotFound, "Product not found!")
	}

	return p, nil
}

func applyProductFields(p *product, req productRequest) {
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.AvailableStock != nil {
		p.AvailableStock = *req.AvailableStock
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.Cost != nil {
		p.Cost = *req.Cost
	}
	if req.Platform != nil {
		p.Platform = *req.Platform
	}
	if req.ImgURL != nil {
		p.ImgURL = *req.ImgURL
	}
}

func productJSON(p *product) map[string]any {
	out := map[string]any{
		"id":              p.ID,
		"name":            p.Name,
		"description":     nullable(p.Description),
		"available_stock": p.AvailableStock,
		// the real backend serializes Decimal columns as strings
		"price":      fmt.Sprintf("%.2f", p.Price),
		"cost":       p.Cost,
		"platform":   nullable(p.Platform),
		"img_url":    nullable(p.ImgURL),
		"created_at": p.CreatedAt.Format(time.RFC3339),
		"updated_at": p.UpdatedAt.Format(time.RFC3339),
		"inactive":   p.Inactive,
	}

	return out
}

func accountJSON(u *user) map[string]any {
	return map[string]any{
		"email":      u.Email,
		"plan_code":  u.PlanCode,
		"created_at": u.CreatedAt.Format(time.RFC3339),
		"updated_at": u.UpdatedAt.Format(time.RFC3339),
	}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}

	return s
}

func detailError(c echo.Context, status int, detail string) error {
	return c.JSON(status, map[string]string{"detail": detail})
}

// validationError mimics the FastAPI 422 body: a detail list of issues.
func validationError(c echo.Context, err error) error {
	msg := "invalid payload"

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		msg = verrs[0].Field() + " failed " + verrs[0].Tag() + " validation"
	}

	return validationMessage(c, msg)
}

func validationMessage(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnprocessableEntity, map[string]any{
		"detail": []map[string]string{{"msg": msg}},
	})
}
