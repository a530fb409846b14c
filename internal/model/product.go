package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// Currency is the single currency all catalog prices are expressed in.
const Currency = "GHS"

// Product is a catalog entry.  CountInStock never drops below zero; the
// store rejects any mutation that would make it negative.
//
// Fields:
//  ID           – opaque unique identifier.
//  Name         – product name (max 200 characters).
//  Description  – free text (max 2000 characters).
//  Price        – unit price in Currency, non-negative.
//  Currency     – always Currency.
//  Category     – free-text category used for filtering.
//  Image        – image URL.
//  Rating       – average rating shown on the storefront.
//  NumReviews   – number of reviews behind Rating.
//  CountInStock – units available for sale.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type Product struct {
    ID           string          `json:"id"`
    Name         string          `json:"name"`
    Description  string          `json:"description"`
    Price        decimal.Decimal `json:"price"`
    Currency     string          `json:"currency"`
    Category     string          `json:"category"`
    Image        string          `json:"image"`
    Rating       float64         `json:"rating"`
    NumReviews   int             `json:"numReviews"`
    CountInStock int             `json:"countInStock"`
    CreatedAt    time.Time       `json:"createdAt"`
    UpdatedAt    time.Time       `json:"updatedAt"`
}

// ProductPatch carries a partial product update.  Nil fields are left
// untouched.
type ProductPatch struct {
    Name         *string          `json:"name"`
    Description  *string          `json:"description"`
    Price        *decimal.Decimal `json:"price"`
    Category     *string          `json:"category"`
    Image        *string          `json:"image"`
    Rating       *float64         `json:"rating"`
    NumReviews   *int             `json:"numReviews"`
    CountInStock *int             `json:"countInStock"`
}

// Apply copies the set fields of the patch onto p.
func (pp ProductPatch) Apply(p *Product) {
    if pp.Name != nil {
        p.Name = *pp.Name
    }
    if pp.Description != nil {
        p.Description = *pp.Description
    }
    if pp.Price != nil {
        p.Price = *pp.Price
    }
    if pp.Category != nil {
        p.Category = *pp.Category
    }
    if pp.Image != nil {
        p.Image = *pp.Image
    }
    if pp.Rating != nil {
        p.Rating = *pp.Rating
    }
    if pp.NumReviews != nil {
        p.NumReviews = *pp.NumReviews
    }
    if pp.CountInStock != nil {
        p.CountInStock = *pp.CountInStock
    }
}
