// Bazaarplan - Creator Bazaar Planning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bazaarplan

// Package bazaar scores candidate dates for holding a creator bazaar.
//
// Every date in a planning horizon starts from a base score and collects
// signed contributions from the calendar context of that day:
//
//	base            +50
//	weekend         +25
//	payday          +20   (days 5, 15 and 25)
//	event proximity  up to +35, maximal 10-12 days before a commercial date
//	holiday period  -15   (inside a multi-day public holiday)
//
// The sum is clamped to 0..100 and mapped to a classification. Reasons are
// framed by the classification: a date scoring at least Good lists only the
// factors that helped it, a Poor/Risky date lists only what hurt it or what
// it lacks. Tips come from an ordered rule table where the first matching
// rule wins.
//
// Suggestions are returned both chronologically and grouped by month with
// the strongest dates first. The engine holds no mutable state, so the same
// horizon, table and policy always produce the same output.
//
// # Usage
//
//	engine, err := bazaar.NewEngine(bazaar.DefaultPolicy(), calendar.DefaultTable(), logger)
//	if err != nil {
//	    return err
//	}
//	set, err := engine.ComputeSuggestions(start, end, bazaar.Options{})
//	for _, month := range set.Months {
//	    best, _ := month.Best()
//	    fmt.Println(month.Label(), best.Date, best.Score)
//	}
package bazaar
