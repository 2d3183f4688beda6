// Package trend estimates the linear rate of sea level change from monthly
// observations.
//
// Monthly residuals around a linear trend are strongly serially correlated:
// a warm, windy season raises several consecutive months together. Ordinary
// least squares ignores that and reports a standard error far too small. The
// [Estimator] instead fits generalized least squares with AR(1) errors,
//
//	y = b0 + b1*t + e,   corr(e_i, e_j) = phi^|i-j|
//
// where lag is counted in rows, so a missing month does not widen the lag.
//
// # Method
//
// For a fixed phi the model is whitened with the Prais-Winsten transform,
//
//	z_1 = sqrt(1-phi^2) * y_1
//	z_t = y_t - phi*y_{t-1}
//
// applied to the response and both design columns, and solved as an ordinary
// regression. phi itself is chosen by maximizing the restricted (REML)
// log-likelihood profiled over the coefficients and the innovation variance:
//
//	l(phi) = -1/2 [ (n-p) log(RSS/(n-p)) - log(1-phi^2) + log det(Z'Z) ] + c
//
// phi is searched as tanh(theta) so the optimizer is unconstrained. The
// covariance of the coefficients is RSS/(n-p) * (Z'Z)^-1.
//
// Regressor t is days since 1970-01-01, so slopes are meters per day. The
// design is centered on the mean date before solving; this leaves the slope
// and the REML objective unchanged and keeps Z'Z well conditioned.
package trend
