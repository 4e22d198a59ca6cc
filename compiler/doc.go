/*

Process of optimization

Program Text ->
	parse ->
Syntax Tree (ast) ->
	optimize: simplify, unusedassign ->
Syntax Tree (ast) ->
	format ->
Program Text

*/
package compiler
