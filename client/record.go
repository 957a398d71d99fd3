package client

import (
	"slices"

	"termdeposit/ml"
)

type (
	Job       string
	Marital   string
	Education string
	YesNo     string
	Contact   string
	Month     string
	Poutcome  string
)

func (v Job) Valid() bool       { return slices.Contains(JobValues, string(v)) }
func (v Marital) Valid() bool   { return slices.Contains(MaritalValues, string(v)) }
func (v Education) Valid() bool { return slices.Contains(EducationValues, string(v)) }
func (v YesNo) Valid() bool     { return slices.Contains(YesNoValues, string(v)) }
func (v Contact) Valid() bool   { return slices.Contains(ContactValues, string(v)) }
func (v Month) Valid() bool     { return slices.Contains(MonthValues, string(v)) }
func (v Poutcome) Valid() bool  { return slices.Contains(PoutcomeValues, string(v)) }

// Record is one client/campaign interaction to be scored. It is comparable,
// so identical records can be used as map or cache keys.
type Record struct {
	Age       float64   `json:"age"`
	Job       Job       `json:"job"`
	Marital   Marital   `json:"marital"`
	Education Education `json:"education"`
	Default   YesNo     `json:"default"`
	Balance   float64   `json:"balance"`
	Housing   YesNo     `json:"housing"`
	Loan      YesNo     `json:"loan"`
	Contact   Contact   `json:"contact"`
	Month     Month     `json:"month"`
	Duration  float64   `json:"duration"`
	Campaign  float64   `json:"campaign"`
	Pdays     float64   `json:"pdays"`
	Previous  float64   `json:"previous"`
	Poutcome  Poutcome  `json:"poutcome"`
}

// Row returns the record as a single model input row in schema order.
func (r Record) Row() ml.Row {
	return ml.Row{
		num(FieldAge, r.Age),
		cat(FieldJob, string(r.Job)),
		cat(FieldMarital, string(r.Marital)),
		cat(FieldEducation, string(r.Education)),
		cat(FieldDefault, string(r.Default)),
		num(FieldBalance, r.Balance),
		cat(FieldHousing, string(r.Housing)),
		cat(FieldLoan, string(r.Loan)),
		cat(FieldContact, string(r.Contact)),
		cat(FieldMonth, string(r.Month)),
		num(FieldDuration, r.Duration),
		num(FieldCampaign, r.Campaign),
		num(FieldPdays, r.Pdays),
		num(FieldPrevious, r.Previous),
		cat(FieldPoutcome, string(r.Poutcome)),
	}
}

func num(name string, v float64) ml.Value {
	return ml.Value{Name: name, Kind: ml.Numeric, Number: v}
}

func cat(name, v string) ml.Value {
	return ml.Value{Name: name, Kind: ml.Categorical, Category: v}
}

func (r *Record) setNumber(name string, v float64) {
	switch name {
	case FieldAge:
		r.Age = v
	case FieldBalance:
		r.Balance = v
	case FieldDuration:
		r.Duration = v
	case FieldCampaign:
		r.Campaign = v
	case FieldPdays:
		r.Pdays = v
	case FieldPrevious:
		r.Previous = v
	}
}

func (r *Record) setCategory(name, v string) {
	switch name {
	case FieldJob:
		r.Job = Job(v)
	case FieldMarital:
		r.Marital = Marital(v)
	case FieldEducation:
		r.Education = Education(v)
	case FieldDefault:
		r.Default = YesNo(v)
	case FieldHousing:
		r.Housing = YesNo(v)
	case FieldLoan:
		r.Loan = YesNo(v)
	case FieldContact:
		r.Contact = Contact(v)
	case FieldMonth:
		r.Month = Month(v)
	case FieldPoutcome:
		r.Poutcome = Poutcome(v)
	}
}

type categoryValue struct {
	name  string
	value string
	valid bool
}

func (r Record) categories() []categoryValue {
	return []categoryValue{
		{FieldJob, string(r.Job), r.Job.Valid()},
		{FieldMarital, string(r.Marital), r.Marital.Valid()},
		{FieldEducation, string(r.Education), r.Education.Valid()},
		{FieldDefault, string(r.Default), r.Default.Valid()},
		{FieldHousing, string(r.Housing), r.Housing.Valid()},
		{FieldLoan, string(r.Loan), r.Loan.Valid()},
		{FieldContact, string(r.Contact), r.Contact.Valid()},
		{FieldMonth, string(r.Month), r.Month.Valid()},
		{FieldPoutcome, string(r.Poutcome), r.Poutcome.Valid()},
	}
}
