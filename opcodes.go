// Copyright 2015 Google Inc. All rights reserved
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package som

// OpCode is the closed set of register-machine instructions the emitter
// produces. Encoding follows the iABC/iABx/iAsBx/iAx instruction families
// surveyed across the pack's register-VM examples: an 8-bit opcode plus
// up to three signed 32-bit operand fields, with Bx/Ax readings available
// as accessors over the same struct rather than a second instruction
// type.
type OpCode uint8

const (
	OpMov   OpCode = iota // MOV   A B     R(A) = R(B)
	OpKSet                // KSET  A Bx    R(A) = K(Bx)
	OpKNil                // KNIL  A B     R(A)..R(A+B) = nil
	OpTNew                // TNEW  A B     R(A) = new table, array part hint B
	OpTGet                // TGET  A B C   R(A) = R(B)[R(C)]
	OpTGetI               // TGETI A B C   R(A) = R(B)[C]      (immediate index)
	OpTSet                // TSET  A B C   R(A)[R(B)] = R(C)
	OpTSetI               // TSETI A B C   R(A)[B] = R(C)      (immediate index)
	OpGGet                // GGET  A Bx    R(A) = Globals[K(Bx)]
	OpUGet                // UGET  A B     R(A) = Upval[B]
	OpUSet                // USET  A B     Upval[A] = R(B)
	OpJmp                 // JMP   sBx     pc += sBx
	OpIsT                 // IST   A       if not R(A) then pc++
	OpIsF                 // ISF   A       if R(A) then pc++
	OpIsEq                // ISEQ  A B C   if (R(B) == R(C)) ~= A then pc++
	OpLoop                // LOOP  sBx     pc += sBx (back-edge, same as JMP, tagged for the VM's loop hook)
	OpCall                // CALL  A B C   R(A)..R(A+C-2) = R(A)(R(A+1)..R(A+B-1))
	OpRet                 // RET   A B     return R(A)..R(A+B-2); a non-local return uses B==3: value in R(A), cookie in R(A+1)
	OpUClo                // UCLO  A       close every open upvalue at or above R(A)
	OpFNew                // FNEW  A Bx    R(A) = closure over function prototype Bx
)

var opNames = map[OpCode]string{
	OpMov: "MOV", OpKSet: "KSET", OpKNil: "KNIL",
	OpTNew: "TNEW", OpTGet: "TGET", OpTGetI: "TGETI",
	OpTSet: "TSET", OpTSetI: "TSETI",
	OpGGet: "GGET", OpUGet: "UGET", OpUSet: "USET",
	OpJmp: "JMP", OpIsT: "IST", OpIsF: "ISF", OpIsEq: "ISEQ", OpLoop: "LOOP",
	OpCall: "CALL", OpRet: "RET", OpUClo: "UCLO", OpFNew: "FNEW",
}

func (o OpCode) String() string {
	if s, ok := opNames[o]; ok {
		return s
	}
	return "?"
}

// Instr is one iABC-form instruction. Bx and sBx readings reinterpret B
// and C as a single wider field; callers that need the Ax reading (FNEW's
// function-table index, when the table grows past what Bx can address)
// combine A and Bx the same way.
type Instr struct {
	Op   OpCode
	A, B, C int32
}

// Bx returns the combined B:C operand, used by KSET/GGET/FNEW for
// constant- and prototype-table indices wider than a single operand
// field.
func (i Instr) Bx() int32 { return i.B<<16 | (i.C & 0xffff) }

// SBx returns Bx reinterpreted as a signed jump offset, used by JMP/LOOP.
func (i Instr) SBx() int32 { return i.Bx() - (1 << 17) }

func mkABC(op OpCode, a, b, c int32) Instr { return Instr{Op: op, A: a, B: b, C: c} }

func mkABx(op OpCode, a, bx int32) Instr {
	return Instr{Op: op, A: a, B: (bx >> 16) & 0xffff, C: bx & 0xffff}
}

func mkAsBx(op OpCode, a, sbx int32) Instr { return mkABx(op, a, sbx+(1<<17)) }
