// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package csvimport bulk-loads citizens from a CSV file.

The file starts with a header naming the columns listed in Columns (the
order is free; nomeCompleto, cpf, dataNascimento and sexo are required).
Template returns a header plus an example row.

Import runs in three passes: every row is validated with the same rules as
the citizen form, CPFs repeated inside the file are rejected, and CPFs already
registered in the tenant are rejected. Only then are all rows inserted in a
single transaction. Line numbers in errors count the header as line 1.
*/
package csvimport
