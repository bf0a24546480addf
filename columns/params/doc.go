// Package params holds column parameter values, their Go literal rendering
// for generated migrations and their snapshot encoding.
package params
