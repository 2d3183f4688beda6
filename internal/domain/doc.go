// Package domain models monthly mean sea level observations from a NOAA
// CO-OPS tide gauge and the trend statistics derived from them.
//
// # Data Source
//
// Input files are the "mean sea level trend" CSV extracts published per
// station at https://tidesandcurrents.noaa.gov/sltrends/. One row per month:
//
//	Year, Month, Monthly_MSL, Unverified, Linear_Trend, High_Conf., Low_Conf.
//
// Monthly_MSL is in meters relative to the station's mean sea level datum
// (the 1983-2001 National Tidal Datum Epoch). Only Year, Month and the MSL
// column are required. Unverified is present but empty in most extracts and
// absent in older ones; when it parses it is kept for display only.
//
// # Dates
//
// A monthly value has no natural day, so every observation is anchored to the
// 15th of its month at 00:00 UTC. The regression uses days since 1970-01-01 as
// its regressor, which makes the fitted slope meters per day.
//
// # Datums
//
//	msl_ft  = msl_m * 3.28084
//	mllw_ft = msl_ft + <station offset>
//
// MLLW (mean lower low water) is the charting datum. The offset from MSL is
// station specific: 4.94 ft for Portland, ME (8418150). See [Station].
//
// # Trend Units
//
// Slopes come out of the fit per day. They are annualized with the Julian
// year (365.25 days) and reported either as mm/yr or in/decade. Confidence
// intervals use a fixed z of 1.96, matching the values NOAA publishes.
//
// # Gaps
//
// Missing months are common (gauge outages, hurricanes). They are never
// interpolated. The rolling mean and the AR(1) error model both operate on
// consecutive rows, so a gap is treated as adjacency.
package domain
